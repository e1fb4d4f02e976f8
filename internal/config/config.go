package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config содержит конфигурацию приложения
type Config struct {
	RunAddress  string        // Адрес и порт запуска сервиса
	DatabaseURI string        // URI подключения к БД
	JWTSecret   string        // Секретный ключ для JWT
	JWTTokenTTL time.Duration // Время жизни сессии
	LogLevel    string        // Уровень логирования

	// Расчет стоимости заказа
	TaxRateBP   int64 // Ставка налога в базисных пунктах (2000 = 20%)
	PromoRateBP int64 // Ставка промо-скидки в базисных пунктах (500 = 5%)
	StrictPromo bool  // Строгая проверка промокодов

	// Просрочка заказов
	OrderTTL time.Duration // Время жизни PENDING заказа до авто-отклонения

	// Worker Pool конфигурация
	WorkerPoolSize     int           // Количество воркеров
	WorkerQueueSize    int           // Размер очереди заказов
	WorkerScanInterval time.Duration // Интервал сканирования просроченных заказов

	// Начальный администратор
	AdminLogin    string
	AdminPassword string
}

// Load загружает конфигурацию из переменных окружения и флагов
// Приоритет: env переменные > флаги > дефолтные значения
func Load() (*Config, error) {
	cfg := &Config{
		JWTTokenTTL:        24 * time.Hour,
		LogLevel:           "info",
		TaxRateBP:          2000,
		PromoRateBP:        500,
		OrderTTL:           72 * time.Hour,
		WorkerPoolSize:     3,
		WorkerQueueSize:    100,
		WorkerScanInterval: time.Minute,
	}

	// Определяем флаги
	flag.StringVar(&cfg.RunAddress, "a", ":8080", "address and port to run server")
	flag.StringVar(&cfg.DatabaseURI, "d", "", "database URI")
	flag.Parse()

	// Переменные окружения имеют приоритет над флагами
	if envRunAddr, ok := os.LookupEnv("RUN_ADDRESS"); ok {
		cfg.RunAddress = envRunAddr
	}

	if envDBURI, ok := os.LookupEnv("DATABASE_URI"); ok {
		cfg.DatabaseURI = envDBURI
	}

	// JWT секрет (только из env, не из флагов для безопасности)
	if envJWTSecret, ok := os.LookupEnv("JWT_SECRET"); ok {
		cfg.JWTSecret = envJWTSecret
	} else {
		cfg.JWTSecret = "default-secret-key-change-in-production"
	}

	// Уровень логирования
	if envLogLevel, ok := os.LookupEnv("LOG_LEVEL"); ok {
		cfg.LogLevel = envLogLevel
	}

	// Параметры расчета стоимости
	if envTaxRate, ok := os.LookupEnv("TAX_RATE_BP"); ok {
		if rate, err := strconv.ParseInt(envTaxRate, 10, 64); err == nil && rate >= 0 {
			cfg.TaxRateBP = rate
		}
	}

	if envPromoRate, ok := os.LookupEnv("PROMO_RATE_BP"); ok {
		if rate, err := strconv.ParseInt(envPromoRate, 10, 64); err == nil && rate >= 0 {
			cfg.PromoRateBP = rate
		}
	}

	if envStrictPromo, ok := os.LookupEnv("STRICT_PROMO"); ok {
		if strict, err := strconv.ParseBool(envStrictPromo); err == nil {
			cfg.StrictPromo = strict
		}
	}

	// Просрочка заказов
	if envOrderTTL, ok := os.LookupEnv("ORDER_TTL"); ok {
		if ttl, err := time.ParseDuration(envOrderTTL); err == nil && ttl > 0 {
			cfg.OrderTTL = ttl
		}
	}

	// Worker Pool конфигурация из env
	if envWorkerPoolSize, ok := os.LookupEnv("WORKER_POOL_SIZE"); ok {
		if size, err := strconv.Atoi(envWorkerPoolSize); err == nil && size > 0 {
			cfg.WorkerPoolSize = size
		}
	}

	if envWorkerQueueSize, ok := os.LookupEnv("WORKER_QUEUE_SIZE"); ok {
		if size, err := strconv.Atoi(envWorkerQueueSize); err == nil && size > 0 {
			cfg.WorkerQueueSize = size
		}
	}

	if envScanInterval, ok := os.LookupEnv("WORKER_SCAN_INTERVAL"); ok {
		if interval, err := time.ParseDuration(envScanInterval); err == nil && interval > 0 {
			cfg.WorkerScanInterval = interval
		}
	}

	// Начальный администратор (только из env)
	if envAdminLogin, ok := os.LookupEnv("ADMIN_LOGIN"); ok {
		cfg.AdminLogin = envAdminLogin
	}

	if envAdminPassword, ok := os.LookupEnv("ADMIN_PASSWORD"); ok {
		cfg.AdminPassword = envAdminPassword
	}

	// Валидация обязательных параметров
	if cfg.DatabaseURI == "" {
		return nil, fmt.Errorf("database URI is required (use -d flag or DATABASE_URI env)")
	}

	return cfg, nil
}
