package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/brechodigital/brecho-core/internal/transport/api/middlewares"
	"github.com/brechodigital/brecho-core/internal/transport/api/tokens"
)

const (
	DefaultServiceTimeout = 3 * time.Second
)

const (
	RouteGroup          = "/api"
	CheckoutRoute       = "/checkout"
	OrdersRoute         = "/orders"
	PayOrderRoute       = "/orders/:id/pay"
	SalesRoute          = "/sales"
	ShippingQuotesRoute = "/shipping/quotes"
	WalletRoute         = "/wallet"
	WalletWithdrawRoute = "/wallet/withdraw"
	WebhookRoute        = "/webhooks/:provider"

	AdminOrdersRoute       = "/admin/orders"
	AdminOrderRoute        = "/admin/orders/:id"
	AdminOrderStatusRoute  = "/admin/orders/:id/status"
	AdminOrderActionsRoute = "/admin/orders/:id/actions"
	AdminOrderStatsRoute   = "/admin/stats"
	AdminSettingsRoute     = "/admin/settings"
	AdminSettingRoute      = "/admin/settings/:key"
)

type RouterArgs struct {
	Logger          *logrus.Logger
	OrderService    OrderServicer
	WalletService   WalletServicer
	SettingsService SettingsServicer
	ShippingService ShippingServicer
	JWTSecretKey    []byte
	WebhookSecret   []byte
}

func New(args RouterArgs) (*gin.Engine, error) {
	if err := registerValidators(); err != nil {
		return nil, err
	}

	r := gin.New()
	r.Use(gin.Recovery())
	if args.Logger != nil {
		r.Use(middlewares.Logger(args.Logger))
	}
	r.Use(middlewares.Errors())

	ordersHandler := NewOrdersHandler(args.OrderService, args.ShippingService)
	adminHandler := NewAdminHandler(args.OrderService)
	settingsHandler := NewSettingsHandler(args.SettingsService)
	walletHandler := NewWalletHandler(args.WalletService)
	webhooksHandler := NewWebhooksHandler(args.OrderService)

	api := r.Group(RouteGroup)

	// Providers sign their callbacks; no bearer token on this route.
	api.POST(WebhookRoute, middlewares.SignatureRequired(args.WebhookSecret), webhooksHandler.Receive)

	api.Use(middlewares.AuthRequired(args.JWTSecretKey))
	// every route below requires an authorized actor.
	api.POST(CheckoutRoute, ordersHandler.Checkout)
	api.POST(PayOrderRoute, ordersHandler.Pay)
	api.GET(OrdersRoute, ordersHandler.Orders)
	api.GET(SalesRoute, ordersHandler.Sales)
	api.GET(ShippingQuotesRoute, ordersHandler.ShippingQuotes)

	api.GET(WalletRoute, walletHandler.Index)
	api.POST(WalletWithdrawRoute, walletHandler.Withdraw)

	admin := api.Group("", middlewares.RoleRequired(tokens.RoleAdmin))
	admin.GET(AdminOrdersRoute, adminHandler.Index)
	admin.GET(AdminOrderRoute, adminHandler.Show)
	admin.POST(AdminOrderStatusRoute, adminHandler.UpdateStatus)
	admin.GET(AdminOrderActionsRoute, adminHandler.Actions)
	admin.GET(AdminOrderStatsRoute, adminHandler.Stats)
	admin.GET(AdminSettingsRoute, settingsHandler.Show)
	admin.PUT(AdminSettingRoute, settingsHandler.Update)

	return r, nil
}
