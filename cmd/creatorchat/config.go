package main

import "time"

type Config struct {
	BadgerFilepath    string        `env:"BADGER_FILEPATH,required=true"`
	TokenSecret       string        `env:"TOKEN_SECRET,required=true"`
	LogLevel          string        `env:"LOG_LEVEL,default=info"`
	AuthTokenDuration time.Duration `env:"AUTH_TOKEN_DURATION,default=24h"`
	EventBufferSize   int           `env:"EVENT_BUFFER_SIZE,default=64"`
	MaxContentLength  int           `env:"MAX_CONTENT_LENGTH,default=2000"`
	RestartInterval   time.Duration `env:"RESTART_INTERVAL,default=200ms"`
}
