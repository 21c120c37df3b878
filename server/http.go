package server

import (
	"fmt"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"gitlab.com/vtindex/backoffice_api/actions"
	"gitlab.com/vtindex/backoffice_api/logger"
	"gitlab.com/vtindex/backoffice_api/model"
)

// ListenToRequests builds the router and serves the back office API
func (srv *server) ListenToRequests() {
	log.Info().Str("worker", "http_listen_to_requests").Str("action", "start").Msg("HTTP Listen to requests - started")
	defer log.Info().Str("worker", "http_listen_to_requests").Str("action", "stop").Msg("HTTP Listen to requests - stopped")

	a := srv.actions

	r := gin.New()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowCredentials = true
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowHeaders = []string{"Origin", "X-Requested-With", "Content-Length", "Content-Type", "Accept", "X-Api-Key", "Authorization"}
	corsConfig.AllowMethods = []string{"GET", "PUT", "POST", "DELETE", "PATCH", "OPTIONS"}

	r.Use(cors.New(corsConfig))
	r.Use(gin.Recovery())
	r.Use(logger.SetLogger())

	r.GET("/ping", actions.Ping)

	api := r.Group("/api")
	{
		api.POST("/login/", a.Login)
		api.POST("/logout/", a.Logout)
		api.POST("/token/refresh/", a.RefreshToken)
		api.POST("/register/", a.Register)
	}

	// cabinet of the signed in client or IB
	cabinet := r.Group("/api", a.Restrict())
	{
		cabinet.GET("/profile/", a.GetOwnProfile)
		cabinet.GET("/transactions/", a.GetOwnTransactions)
		cabinet.POST("/transactions/", a.CreateTransaction)
		cabinet.POST("/upload-document/", a.UploadDocument)

		referrals := cabinet.Group("/referrals")
		{
			referrals.GET("/", a.GetReferrals)
			referrals.GET("/earnings/total", a.GetReferralEarnings)
		}
		cabinet.GET("/commissions/", a.GetOwnCommissions)

		cabinet.GET("/notifications/", a.GetNotifications)
		cabinet.POST("/notifications/:notification_id/read", a.MarkNotificationRead)

		cabinet.GET("/accounts/", a.GetOwnTradingAccounts)
		cabinet.POST("/accounts/:account_id/refresh", a.RefreshTradingAccount)
	}

	// staff surface: admins see everything, managers only the users they
	// look after (the handlers narrow the scope)
	staff := r.Group("/api", a.Restrict(), a.StaffOnly())
	{
		staff.GET("/users/", a.GetUsers)
		staff.POST("/users/", a.CreateUser)
		staff.GET("/users/:user_id/", a.GetUser)
		staff.POST("/users/:user_id/promote/", a.PromoteToIB)
		staff.POST("/users/:user_id/accounts/", a.CreateTradingAccount)

		admin := staff.Group("/admin")
		{
			admin.GET("/transactions/", a.GetTransactions)
			admin.POST("/transaction/:transaction_id/approve", a.ApproveTransaction)
			admin.POST("/transaction/:transaction_id/reject", a.RejectTransaction)
			admin.GET("/pending-deposits/", a.GetPendingDeposits)
			admin.GET("/pending-withdrawals/", a.GetPendingWithdrawals)
			admin.GET("/pending-transfers/", a.GetPendingTransfers)
			admin.GET("/commission-transactions/", a.GetCommissionTransactions)
			admin.GET("/trading-accounts/", a.GetTradingAccounts)
			admin.GET("/activity-logs/", a.GetActivityLogs)
			admin.GET("/kyc-documents/", a.GetUserKycDocuments)
		}

		staff.GET("/dashboard/stats/", a.GetDashboardStats)
	}

	adminOnly := r.Group("/api", a.Restrict(), a.HasRole(model.RoleAdmin))
	{
		adminOnly.GET("/commissioning-profiles/", a.GetCommissionProfiles)
		adminOnly.POST("/commissioning-profiles/", a.CreateCommissionProfile)
		adminOnly.PUT("/commissioning-profile/:profile_id/", a.UpdateCommissionProfile)
		adminOnly.DELETE("/commissioning-profile/:profile_id/", a.DeleteCommissionProfile)
		adminOnly.POST("/commissioning-profile/:profile_id/group-override/", a.SaveProfileGroupOverride)

		adminOnly.POST("/verify-document/:kind/", a.VerifyDocument)
	}

	srv.HTTP = &http.Server{
		Addr:    fmt.Sprintf(":%d", srv.config.Server.API.Port),
		Handler: r,
	}
	srv.HTTP.SetKeepAlivesEnabled(srv.config.Server.API.KeepAlive)

	if err := srv.HTTP.ListenAndServe(); err != nil {
		if err != http.ErrServerClosed {
			log.Error().Err(err).
				Str("section", "server").
				Str("action", "listen").
				Msgf("Unable to listen on port %d", srv.config.Server.API.Port)
		}
	}
}
