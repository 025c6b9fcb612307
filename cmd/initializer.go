package main

import (
	"database/sql"
	"log"

	"github.com/redis/go-redis/v9"

	"stakefitBack/internal/config"
	"stakefitBack/internal/handlers"
	"stakefitBack/internal/repositories"
	"stakefitBack/internal/services"
	"stakefitBack/utils"
)

type application struct {
	errorLog *log.Logger
	infoLog  *log.Logger
	db       *sql.DB
	cfg      config.Config

	userRepo     *repositories.UserRepository
	tokenManager *utils.Manager

	sweepService      *services.SweepService
	withdrawalService *services.WithdrawalService

	userHandler        *handlers.UserHandler
	objectiveHandler   *handlers.ObjectiveHandler
	inviteHandler      *handlers.InviteHandler
	withdrawalHandler  *handlers.WithdrawalHandler
	transactionHandler *handlers.TransactionHandler
}

func initializeApp(db *sql.DB, rdb *redis.Client, cfg config.Config, errorLog, infoLog *log.Logger) *application {
	// Repositories
	userRepo := repositories.UserRepository{DB: db}
	sessionRepo := repositories.SessionRepository{DB: db}
	payoutRepo := repositories.PayoutRepository{DB: db}
	recipientRepo := repositories.RecipientRepository{DB: db}
	inviteRepo := repositories.InviteRepository{DB: db}
	transactionRepo := repositories.TransactionRepository{DB: db}
	withdrawalRepo := repositories.WithdrawalRepository{DB: db}

	// External clients
	tokenManager, err := utils.NewManager(cfg.Auth.SigningKey)
	if err != nil {
		errorLog.Fatal(err)
	}
	payWay, err := services.NewPayWayService(services.PayWayConfig{
		BaseURL:    cfg.PayWay.BaseURL,
		Username:   cfg.PayWay.Username,
		Password:   cfg.PayWay.Password,
		MerchantID: cfg.PayWay.MerchantID,
	})
	if err != nil {
		errorLog.Fatal(err)
	}
	sms := &services.SMSService{APIKey: cfg.SMS.APIKey}
	mailer := &services.Mailer{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
	}

	// Services
	userService := &services.UserService{
		UserRepo:      &userRepo,
		RecipientRepo: &recipientRepo,
		TokenManager:  tokenManager,
		Mailer:        mailer,
	}
	sessionService := &services.SessionService{
		SessionRepo: &sessionRepo,
		UserRepo:    &userRepo,
	}
	sweepService := &services.SweepService{
		SessionRepo:   &sessionRepo,
		PayoutRepo:    &payoutRepo,
		UserRepo:      &userRepo,
		RecipientRepo: &recipientRepo,
		Locker:        &services.SweepLocker{RDB: rdb},
		ErrorLog:      errorLog,
	}
	inviteService := &services.InviteService{
		InviteRepo:    &inviteRepo,
		RecipientRepo: &recipientRepo,
		UserRepo:      &userRepo,
		SMS:           sms,
		PayWay:        payWay,
		InviteLink:    cfg.SMS.InviteLink,
	}
	withdrawalService := &services.WithdrawalService{
		WithdrawalRepo: &withdrawalRepo,
		RecipientRepo:  &recipientRepo,
		UserRepo:       &userRepo,
		PayWay:         payWay,
		ErrorLog:       errorLog,
	}
	transactionService := &services.TransactionService{
		TransactionRepo: &transactionRepo,
		UserRepo:        &userRepo,
	}

	// Handlers
	userHandler := &handlers.UserHandler{Service: userService}
	objectiveHandler := &handlers.ObjectiveHandler{Sessions: sessionService, Sweep: sweepService}
	inviteHandler := &handlers.InviteHandler{Service: inviteService}
	withdrawalHandler := &handlers.WithdrawalHandler{Service: withdrawalService}
	transactionHandler := &handlers.TransactionHandler{Service: transactionService}

	return &application{
		errorLog:           errorLog,
		infoLog:            infoLog,
		db:                 db,
		cfg:                cfg,
		userRepo:           &userRepo,
		tokenManager:       tokenManager,
		sweepService:       sweepService,
		withdrawalService:  withdrawalService,
		userHandler:        userHandler,
		objectiveHandler:   objectiveHandler,
		inviteHandler:      inviteHandler,
		withdrawalHandler:  withdrawalHandler,
		transactionHandler: transactionHandler,
	}
}
