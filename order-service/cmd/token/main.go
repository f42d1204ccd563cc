// Command token выпускает JWT покупателя для вызова API заказов при разработке.
package main

import (
	"flag"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/director74/order_saga/pkg/auth"
	"github.com/director74/order_saga/pkg/config"
)

func main() {
	userID := flag.Uint("user", 1, "customer id")
	username := flag.String("name", "customer", "customer name")
	email := flag.String("email", "", "customer email")
	flag.Parse()

	// те же переменные, что читает сервис заказов
	godotenv.Load()
	jwtCfg := config.LoadJWTConfig("order-service")
	if config.GetEnv("JWT_SIGNING_KEY", "") == "" {
		log.Fatal().Msg("нужно задать JWT_SIGNING_KEY, иначе сервис заказов не примет токен")
	}

	authCfg := auth.NewConfig(jwtCfg.SigningKey)
	authCfg.TTL = jwtCfg.TTL
	authCfg.Issuer = jwtCfg.Issuer
	authCfg.Audience = jwtCfg.Audience

	token, err := auth.NewTokenManager(authCfg).Issue(auth.Customer{ID: *userID, Name: *username, Email: *email})
	if err != nil {
		log.Fatal().Err(err).Msg("не удалось подписать токен")
	}
	fmt.Println(token)
}
