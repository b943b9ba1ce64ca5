package service

import (
	"fmt"
	"time"

	"github.com/brechodigital/brecho-core/internal/domain"
	"github.com/brechodigital/brecho-core/pkg/uow"
)

type AppServices struct {
	OrderService       *OrderService
	WalletService      *WalletService
	FeeScheduleService *FeeScheduleService
	PaymentService     *PaymentIntentService
}

type FactoryArgs struct {
	Adapters        map[domain.PaymentMethod]ProviderAdapter
	Quotes          ShippingQuoter
	Addresses       AddressBook
	ProviderTimeout time.Duration
}

func Factory(unitOfWork uow.UOW, args FactoryArgs) (*AppServices, error) {
	feeService, feeErr := NewFeeScheduleService(unitOfWork)
	if feeErr != nil {
		return nil, fmt.Errorf("service factory: %s", feeErr.Error())
	}

	paymentService, paymentErr := NewPaymentIntentService(unitOfWork, args.Adapters, args.ProviderTimeout)
	if paymentErr != nil {
		return nil, fmt.Errorf("service factory: %s", paymentErr.Error())
	}

	orderService, orderErr := NewOrderService(unitOfWork, OrderServiceArgs{
		Intents:   paymentService,
		Fees:      feeService,
		Quotes:    args.Quotes,
		Addresses: args.Addresses,
	})
	if orderErr != nil {
		return nil, fmt.Errorf("service factory: %s", orderErr.Error())
	}

	walletService, walletErr := NewWalletService(unitOfWork, feeService)
	if walletErr != nil {
		return nil, fmt.Errorf("service factory: %s", walletErr.Error())
	}

	return &AppServices{
		OrderService:       orderService,
		WalletService:      walletService,
		FeeScheduleService: feeService,
		PaymentService:     paymentService,
	}, nil
}
