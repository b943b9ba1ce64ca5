package app

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/brechodigital/brecho-core/internal/config"
	"github.com/brechodigital/brecho-core/internal/domain"
	"github.com/brechodigital/brecho-core/internal/repository/pgrepo"
	"github.com/brechodigital/brecho-core/internal/repository/repoargs"
	"github.com/brechodigital/brecho-core/internal/service"
	"github.com/brechodigital/brecho-core/internal/transport/addressbook"
	"github.com/brechodigital/brecho-core/internal/transport/api"
	"github.com/brechodigital/brecho-core/internal/transport/psp"
	"github.com/brechodigital/brecho-core/internal/transport/release"
	"github.com/brechodigital/brecho-core/internal/transport/shipping"
	"github.com/brechodigital/brecho-core/pkg/uow"

	// driver for migration applying postgres.
	_ "github.com/golang-migrate/migrate/v4/database/postgres" //nolint:revive
	// driver to get migrations from files (*.sql in our case).
	_ "github.com/golang-migrate/migrate/v4/source/file" //nolint:revive
	"github.com/jackc/pgx/v5/pgxpool"
)

type App struct {
	Config *config.Config
	Logger *logrus.Logger
}

func New(conf *config.Config, l *logrus.Logger) *App {
	return &App{
		Config: conf,
		Logger: l,
	}
}

func (a *App) Run() error {
	notifyCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a.Logger.Infof("Starting app on %s", a.Config.RunAddress)
	conn, connErr := pgrepo.Connect(notifyCtx, a.Config.MigrationsDir, a.Config.DatabaseDSN, a.Logger)
	if connErr != nil {
		return fmt.Errorf("app run: %s", connErr.Error())
	}
	defer conn.Close()

	unitOfWork, uowErr := initUOW(conn)
	if uowErr != nil {
		return fmt.Errorf("app run: %s", uowErr.Error())
	}

	quoteCache := shipping.NewQuoteCache(
		shipping.NewHTTPClient(a.Config.ShippingAPIAddress), a.Config.QuoteTTL)

	services, sErr := service.Factory(unitOfWork, service.FactoryArgs{
		Adapters: map[domain.PaymentMethod]service.ProviderAdapter{
			domain.PaymentMethodPix:    psp.NewPixAdapter(a.Config.PixProviderAddress),
			domain.PaymentMethodCard:   psp.NewCardAdapter(a.Config.CardProviderAddress),
			domain.PaymentMethodBoleto: psp.NewBoletoAdapter(a.Config.BoletoProviderAddress),
		},
		Quotes:          quoteCache,
		Addresses:       addressbook.NewHTTPClient(a.Config.AddressAPIAddress),
		ProviderTimeout: a.Config.ProviderTimeout,
	})
	if sErr != nil {
		return fmt.Errorf("app run: %s", sErr.Error())
	}

	router, routerErr := api.New(api.RouterArgs{
		Logger:          a.Logger,
		OrderService:    services.OrderService,
		WalletService:   services.WalletService,
		SettingsService: services.FeeScheduleService,
		ShippingService: quoteCache,
		JWTSecretKey:    []byte(a.Config.JWTActorSecret),
		WebhookSecret:   []byte(a.Config.WebhookSecret),
	})
	if routerErr != nil {
		return fmt.Errorf("app run: %s", routerErr.Error())
	}

	errChan := make(chan error, 1)

	go func() {
		if runErr := router.Run(a.Config.RunAddress); runErr != nil {
			errChan <- runErr
		}
	}()

	worker := release.New(services.OrderService, a.Logger).
		SetInterval(a.Config.WorkerInterval).
		SetDraftWindow(a.Config.DraftWindow)

	go worker.Run(notifyCtx)

	select {
	case <-notifyCtx.Done():
		return notifyCtx.Err() //nolint:wrapcheck
	case err := <-errChan:
		return err
	}
}

func initUOW(conn *pgxpool.Pool) (*uow.UnitOfWork, error) {
	unitOfWork := uow.NewUnitOfWork(conn)

	repos := map[repoargs.RepositoryName]func(dbtx uow.DBTX) uow.Repository{
		repoargs.OrderRepoName: func(dbtx uow.DBTX) uow.Repository {
			return pgrepo.NewOrderRepository(dbtx)
		},
		repoargs.StatusHistoryRepoName: func(dbtx uow.DBTX) uow.Repository {
			return pgrepo.NewStatusHistoryRepository(dbtx)
		},
		repoargs.PaymentIntentRepoName: func(dbtx uow.DBTX) uow.Repository {
			return pgrepo.NewPaymentIntentRepository(dbtx)
		},
		repoargs.FeeScheduleRepoName: func(dbtx uow.DBTX) uow.Repository {
			return pgrepo.NewFeeScheduleRepository(dbtx)
		},
		repoargs.WalletRepoName: func(dbtx uow.DBTX) uow.Repository {
			return pgrepo.NewWalletRepository(dbtx)
		},
	}

	for name, factoryFn := range repos {
		if regErr := unitOfWork.Register(uow.RepositoryName(name), factoryFn); regErr != nil {
			return nil, fmt.Errorf("init UOW: %s", regErr.Error())
		}
	}

	return unitOfWork, nil
}
