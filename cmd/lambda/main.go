//go:build lambda

// Command lambda scores inline problems behind an AWS Lambda function URL.
//
//	GOOS=linux GOARCH=arm64 go build -tags lambda -o bootstrap ./cmd/lambda
package main

import (
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/charmbracelet/log"

	"github.com/matzehuels/encore/pkg/api"
	"github.com/matzehuels/encore/pkg/cache"
	"github.com/matzehuels/encore/pkg/pipeline"
)

func main() {
	logger := log.NewWithOptions(os.Stderr, log.Options{Level: log.InfoLevel, Formatter: log.JSONFormatter})
	runner := pipeline.NewRunner(pipeline.NewPaths(os.TempDir()), nil, nil, cache.NewNullCache(), nil, logger)
	lambda.Start(api.LambdaHandler(runner, 6<<20))
}
