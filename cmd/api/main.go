package main

import (
	"context"
	"net/http"
	"regexp"

	"numeraapi/internal/api"
	"numeraapi/internal/api/admin"
	"numeraapi/internal/api/auth"
	"numeraapi/internal/api/certificate"
	"numeraapi/internal/api/course"
	"numeraapi/internal/api/payment"
	"numeraapi/internal/api/quicktest"
	"numeraapi/internal/api/timebank"
	"numeraapi/internal/api/user"
	"numeraapi/internal/timeledger"
	"numeraapi/pkg/config"
	"numeraapi/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/stripe/stripe-go/v82"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {

	ctx := context.Background()
	h := &api.Handler{}

	// init logger
	logger, err := zap.NewDevelopment(
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
	)
	if err != nil {
		panic(err)
	}
	logger.Info("Server starting...")
	defer logger.Sync()
	h.Logger = logger

	// init validator
	h.Validate = validator.New()
	h.Validate.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		password := fl.Field().String()
		re := regexp.MustCompile(`^[A-Za-z0-9~` + "`" + `!@#$%^&*()_\-+={[}\]|\\:;"'<,>.?/]{8,128}$`)
		return re.MatchString(password)
	})
	h.Validate.RegisterValidation("maxgraphemes", utils.MaxGraphemesValidator)

	// init mongo
	mongoServerAPI := options.ServerAPI(options.ServerAPIVersion1)
	mongoOpts := options.Client().ApplyURI(config.ENV.MONGO_URI).SetServerAPIOptions(mongoServerAPI)
	mongoCli, err := mongo.Connect(mongoOpts)
	if err != nil {
		panic(err)
	}
	defer func() {
		if err = mongoCli.Disconnect(ctx); err != nil {
			panic(err)
		}
	}()
	if err := mongoCli.Ping(ctx, readpref.Primary()); err != nil {
		panic(err)
	}
	h.MongoDB = mongoCli.Database(config.MONGO_DB)

	// unique indexes backing the check-then-create paths
	if _, err := h.MongoDB.Collection("users").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		panic(err)
	}
	if _, err := h.MongoDB.Collection("certificates").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "userId", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		panic(err)
	}

	// init redis
	h.RedisCli = redis.NewClient(&redis.Options{
		Addr:     config.ENV.REDIS_ADDR,
		Username: config.ENV.REDIS_USERNAME,
		Password: config.ENV.REDIS_PASSWORD,
		DB:       0,
	})

	// init stripe
	h.StripeCli = stripe.NewClient(config.ENV.STRIPE_SECRET_KEY)

	// init time ledger
	store := timeledger.NewMongoStore(h.MongoDB)
	h.Ledger = timeledger.New(store)
	h.Gate = timeledger.NewGate(store)
	h.Watcher = store

	router := chi.NewRouter()

	// Middleware
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{config.ORIGIN},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	}))
	router.Use(middleware.Recoverer)
	router.Use(middleware.RequestSize(1 << 20))

	authH := &auth.Handler{Handler: h}
	userH := &user.Handler{Handler: h}
	timebankH := &timebank.Handler{Handler: h}
	paymentH := &payment.Handler{Handler: h}
	courseH := &course.Handler{Handler: h}
	quicktestH := &quicktest.Handler{Handler: h}
	certificateH := &certificate.Handler{Handler: h}
	adminH := &admin.Handler{Handler: h}

	// auth endpoints
	router.Post("/auth/create-account", authH.CreateAccount)
	router.Post("/auth/password-login", authH.PasswordLogin)
	router.Post("/auth/send-verification-code", authH.SendVerificationCode)
	router.Post("/auth/verify-email", authH.VerifyEmail)

	// user endpoints
	router.Get("/user", userH.GetUserData)

	// time budget endpoints
	router.Get("/timebank", h.AuthMiddleware(timebankH.GetBalance))
	router.Get("/timebank/stream", h.AuthMiddleware(timebankH.Stream))
	router.Post("/timebank/checkpoint", h.AuthMiddleware(timebankH.Checkpoint))
	router.Post("/timebank/create-checkout", h.AuthMiddleware(timebankH.CreateCheckout))

	// payment endpoints
	router.Post("/payment/stripe-webhook", paymentH.StripeWebhook)

	// course endpoints
	router.Get("/course/stages", h.AuthMiddleware(courseH.GetStages))
	router.Post("/course/submit-quiz", h.AuthMiddleware(courseH.SubmitQuiz))

	// quick test endpoints
	router.Post("/quicktest/submit-answer", h.AuthMiddleware(quicktestH.SubmitAnswer))
	router.Get("/quicktest/leaderboard", quicktestH.GetLeaderboard)

	// certificate endpoints
	router.Post("/certificate/issue", h.AuthMiddleware(certificateH.Issue))
	router.Get("/certificate", h.AuthMiddleware(certificateH.GetCertificate))

	// admin endpoints
	router.Post("/admin/top-up", h.AdminMiddleware(adminH.TopUp))
	router.Get("/admin/users", h.AdminMiddleware(adminH.ListUsers))
	router.Get("/admin/balance-history", h.AdminMiddleware(adminH.BalanceHistory))

	logger.Info("Server running on port 8080")
	http.ListenAndServe(":8080", router)

}
