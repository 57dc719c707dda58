// Package config reads settings from the environment.
package config

import (
	"github.com/kelseyhightower/envconfig"
)

// Config is read by the publishing CLI and lambda.
type Config struct {
	Region    string `envconfig:"AWS_REGION" default:"us-east-1"`
	Container string `envconfig:"POSTS_CONTAINER" default:"posts"`
	Dir       string `envconfig:"POSTS_DIR" default:"posts"`
	SQSURL    string `envconfig:"SQS_URL"`
	Sender    string `envconfig:"NOTICE_SENDER" default:"post-publisher"`
}

// Worker is read by the index worker.
type Worker struct {
	Region                  string `envconfig:"AWS_REGION" default:"us-east-1"`
	SQSURL                  string `envconfig:"SQS_URL" required:"true"`
	SQSLongpollTimeoutInSec int64  `envconfig:"SQS_LONGPOLL_TIMEOUT_IN_SEC" default:"10"`
	IndexTable              string `envconfig:"POSTS_INDEX_TABLE" default:"posts-index"`
}

// Load fills the publisher config from the environment.
func Load() (Config, error) {
	var c Config
	err := envconfig.Process("", &c)
	return c, err
}

// LoadWorker fills the worker config from the environment.
func LoadWorker() (Worker, error) {
	var w Worker
	err := envconfig.Process("", &w)
	return w, err
}
