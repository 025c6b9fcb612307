package main

import (
	"net/http"

	"github.com/bmizerany/pat"
	"github.com/justinas/alice"
)

func (app *application) routes() http.Handler {
	standardMiddleware := alice.New(app.recoverPanic, app.logRequest, secureHeaders, makeResponseJSON)
	authMiddleware := standardMiddleware.Append(app.JWTMiddleware)
	schedulerMiddleware := standardMiddleware.Append(app.schedulerOnly)

	mux := pat.New()

	// Users
	mux.Post("/users/profile", standardMiddleware.ThenFunc(app.userHandler.UpsertProfile))
	mux.Post("/signin", standardMiddleware.ThenFunc(app.userHandler.SignIn))
	mux.Post("/auth/login", standardMiddleware.ThenFunc(app.userHandler.SignIn)) // legacy client alias
	mux.Get("/users/:userId/balance", authMiddleware.ThenFunc(app.userHandler.GetBalance))
	mux.Post("/user/request_reset", standardMiddleware.ThenFunc(app.userHandler.RequestPasswordReset))
	mux.Post("/user/verify_reset_code", standardMiddleware.ThenFunc(app.userHandler.VerifyResetCode))
	mux.Post("/user/reset_password", standardMiddleware.ThenFunc(app.userHandler.ResetPassword))

	// Objective sessions
	mux.Get("/objectives/today/:userId", authMiddleware.ThenFunc(app.objectiveHandler.GetToday))
	mux.Post("/objectives/complete/:userId", authMiddleware.ThenFunc(app.objectiveHandler.LogProgress))
	mux.Post("/objectives/settings/:userId", authMiddleware.ThenFunc(app.objectiveHandler.ApplySettings))
	mux.Post("/objectives/create-daily-sessions", schedulerMiddleware.ThenFunc(app.objectiveHandler.CreateDailySessions))
	mux.Post("/objectives/check-missed", schedulerMiddleware.ThenFunc(app.objectiveHandler.CheckMissed))

	// Recipient invites
	mux.Post("/recipient-invites", authMiddleware.ThenFunc(app.inviteHandler.CreateInvite))
	mux.Post("/recipient-invites/code-only", authMiddleware.ThenFunc(app.inviteHandler.CreateInviteCodeOnly))
	mux.Get("/verify-invite/:code", standardMiddleware.ThenFunc(app.inviteHandler.VerifyInvite))
	mux.Post("/recipient-signup", standardMiddleware.ThenFunc(app.inviteHandler.RecipientSignup))
	mux.Post("/recipient-onboarding", standardMiddleware.ThenFunc(app.inviteHandler.RecipientOnboarding))
	mux.Post("/recipients/select", authMiddleware.ThenFunc(app.inviteHandler.SelectRecipient))
	mux.Get("/recipient-invites/:payerId", authMiddleware.ThenFunc(app.inviteHandler.ListInvites))

	// Money movement
	mux.Post("/withdraw", authMiddleware.ThenFunc(app.withdrawalHandler.Withdraw))
	mux.Get("/withdrawals/pending/:userId", authMiddleware.ThenFunc(app.withdrawalHandler.ListPending))
	mux.Post("/withdrawals/process-queue", schedulerMiddleware.ThenFunc(app.withdrawalHandler.ProcessQueue))
	mux.Get("/users/:userId/transactions", authMiddleware.ThenFunc(app.transactionHandler.History))

	return mux
}
