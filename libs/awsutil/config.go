package awsutil

import (
	"os"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/sprucehealth/mediaindexer/libs/errors"
)

// Config returns an AWS config using either the provided credentials or the SDK's default
// chain (environment, shared config, instance role) when none are given.
func Config(region, accessKey, secretKey, token string) (*aws.Config, error) {
	if region == "" {
		region = os.Getenv("AWS_REGION")
	}
	if region == "" {
		return nil, errors.New("no AWS region provided and AWS_REGION not set")
	}
	cfg := &aws.Config{
		Region: aws.String(region),
	}
	if accessKey != "" && secretKey != "" {
		cfg.Credentials = credentials.NewStaticCredentials(accessKey, secretKey, token)
	}
	return cfg, nil
}
