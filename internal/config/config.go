package config

import (
	"log"
	"os"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Server struct {
		Address string `yaml:"address"`
	} `yaml:"server"`
	Database struct {
		Driver string `yaml:"driver"`
		URL    string `yaml:"url"`
	} `yaml:"database"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Auth struct {
		SigningKey     string `yaml:"signing_key"`
		SchedulerToken string `yaml:"scheduler_token"`
	} `yaml:"auth"`
	PayWay struct {
		BaseURL    string `yaml:"base_url"`
		Username   string `yaml:"username"`
		Password   string `yaml:"password"`
		MerchantID string `yaml:"merchant_id"`
	} `yaml:"payway"`
	SMS struct {
		APIKey     string `yaml:"api_key"`
		InviteLink string `yaml:"invite_link"` // deep link base, code appended
	} `yaml:"sms"`
	SMTP struct {
		Host     string `yaml:"host"`
		Port     string `yaml:"port"`
		Username string `yaml:"username"`
		Password string `yaml:"password"`
		From     string `yaml:"from"`
	} `yaml:"smtp"`
	Sweep struct {
		IntervalMinutes int `yaml:"interval_minutes"`
	} `yaml:"sweep"`
}

func LoadConfig() Config {
	var cfg Config

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config/config.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("Failed to read config file: %v", err)
	}

	err = yaml.Unmarshal(data, &cfg)
	if err != nil {
		log.Fatalf("Failed to unmarshal config data: %v", err)
	}
	return cfg
}
