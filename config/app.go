package config

import (
	"crypto/rand"
	"encoding/hex"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// AppConfig holds global application configuration
var AppConfig *Config
var once sync.Once

const DefaultAPIURL = "http://localhost:3001"

type Config struct {
	AppName string
	Port    string
	Env     string
	Debug   bool

	// REST backend
	APIURL          string
	APIToken        string
	QueryStaleTime  time.Duration
	QueryRetryDelay time.Duration

	SessionSecret   []byte
	StripePublicKey string

	TaxRate          decimal.Decimal
	FreeShippingOver decimal.Decimal
	ShippingFee      decimal.Decimal

	ElasticsearchHost  string
	ElasticsearchIndex string
	MediaHosts         []string
}

// LoadAppConfig initializes the global AppConfig variable
func LoadAppConfig() *Config {
	once.Do(func() {
		AppConfig = &Config{
			AppName:            GetEnv("APP_NAME", "ShopHub"),
			Port:               GetEnv("PORT", "8080"),
			Env:                GetEnv("APP_ENV", "local"),
			Debug:              os.Getenv("DEBUG") == "true",
			APIURL:             strings.TrimRight(GetEnv("API_URL", DefaultAPIURL), "/"),
			APIToken:           os.Getenv("API_TOKEN"),
			QueryStaleTime:     GetDuration("QUERY_STALE_TIME", 30*time.Second),
			QueryRetryDelay:    GetDuration("QUERY_RETRY_DELAY", time.Second),
			SessionSecret:      sessionSecret(),
			StripePublicKey:    os.Getenv("STRIPE_PUBLIC_KEY"),
			TaxRate:            getDecimal("TAX_RATE", decimal.Zero),
			FreeShippingOver:   getDecimal("FREE_SHIPPING_OVER", decimal.NewFromInt(50)),
			ShippingFee:        getDecimal("SHIPPING_FEE", decimal.RequireFromString("9.99")),
			ElasticsearchHost:  os.Getenv("ELASTICSEARCH_HOST"),
			ElasticsearchIndex: GetEnv("ELASTICSEARCH_INDEX", "shophub_products"),
			MediaHosts:         splitList(GetEnv("MEDIA_HOSTS", "images.unsplash.com")),
		}
	})
	return AppConfig
}

func getDecimal(key string, def decimal.Decimal) decimal.Decimal {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		log.Printf("config: invalid decimal %s=%q, using %s", key, v, def)
		return def
	}
	return d
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// sessionSecret falls back to a per-process random key, which invalidates
// visitor cookies on every restart.
func sessionSecret() []byte {
	if s := os.Getenv("SESSION_SECRET"); s != "" {
		return []byte(s)
	}
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic("config: cannot generate session secret: " + err.Error())
	}
	log.Println("SESSION_SECRET not set, using a random per-process secret")
	return []byte(hex.EncodeToString(b))
}
