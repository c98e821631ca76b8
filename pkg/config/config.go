package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

const (
	ORIGIN   = "http://localhost:5173"
	MONGO_DB = "NumeraDev"

	COURSE_TITLE = "Foundations of Accounting"

	// time budget
	INITIAL_GRANT_SECONDS = 7200
	CHECKPOINT_INTERVAL   = 30 * time.Second
	ADOPT_THRESHOLD       = 5
	MAX_TOPUP_SECONDS     = 24 * 3600

	// course / quick test
	QUIZ_PASS_PERCENT  = 70
	LEVEL_STEP_POINTS  = 100
	LEADERBOARD_SIZE   = 10
	HISTORY_TAIL_LIMIT = 20

	CHECKOUT_SESSION_DURATION = 30 * time.Minute
)

// TimePack is a purchasable block of platform time.
type TimePack struct {
	Id      string
	PriceId string
	Seconds int
}

var TIME_PACKS = []TimePack{
	{Id: "1h", PriceId: "price_time_1h", Seconds: 3600},
	{Id: "5h", PriceId: "price_time_5h", Seconds: 18000},
	{Id: "10h", PriceId: "price_time_10h", Seconds: 36000},
}

func TimePackById(id string) *TimePack {
	for i := range TIME_PACKS {
		if TIME_PACKS[i].Id == id {
			return &TIME_PACKS[i]
		}
	}
	return nil
}

type EnvVars struct {
	MONGO_URI             string
	REDIS_ADDR            string
	REDIS_USERNAME        string
	REDIS_PASSWORD        string
	JWT_SECRET            string
	STRIPE_SECRET_KEY     string
	STRIPE_WEBHOOK_SECRET string
	AWS_ACCESS_KEY_ID     string
	AWS_SECRET_ACCESS_KEY string
}

var ENV *EnvVars

func init() {

	prod := os.Getenv("ENV") == "prod"

	if !prod {
		if err := godotenv.Load(); err != nil {
			log.Println("no .env file, using process environment")
		}
	}

	ENV = &EnvVars{
		MONGO_URI:             os.Getenv("MONGO_URI"),
		REDIS_ADDR:            os.Getenv("REDIS_ADDR"),
		REDIS_USERNAME:        os.Getenv("REDIS_USERNAME"),
		REDIS_PASSWORD:        os.Getenv("REDIS_PASSWORD"),
		JWT_SECRET:            os.Getenv("JWT_SECRET"),
		STRIPE_SECRET_KEY:     os.Getenv("STRIPE_SECRET_KEY"),
		STRIPE_WEBHOOK_SECRET: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		AWS_ACCESS_KEY_ID:     os.Getenv("AWS_ACCESS_KEY_ID"),
		AWS_SECRET_ACCESS_KEY: os.Getenv("AWS_SECRET_ACCESS_KEY"),
	}

}
