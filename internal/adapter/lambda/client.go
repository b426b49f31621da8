// Package lambda submits units of work as asynchronous AWS Lambda invocations.
package lambda

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awslambda "github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/lambda/types"
	"github.com/couchcryptid/climate-monitor-backfill/internal/dispatch"
)

// InvokeAPI is the subset of the Lambda API used for async invocation.
type InvokeAPI interface {
	Invoke(ctx context.Context, in *awslambda.InvokeInput, opts ...func(*awslambda.Options)) (*awslambda.InvokeOutput, error)
}

// Client implements dispatch.Client. The unit name is the function name.
type Client struct {
	api    InvokeAPI
	logger *slog.Logger
}

// NewClient wraps an existing Lambda API client.
func NewClient(api InvokeAPI, logger *slog.Logger) *Client {
	return &Client{api: api, logger: logger}
}

// NewFromEnv builds a Lambda client from the default AWS credential chain.
// An empty region defers to AWS_REGION and the shared config files.
func NewFromEnv(ctx context.Context, region string, logger *slog.Logger) (*Client, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewClient(awslambda.NewFromConfig(cfg), logger), nil
}

// Submit invokes unit with InvocationType=Event. Lambda answers 202 once the
// event is queued; anything else is a rejected submission.
func (c *Client) Submit(ctx context.Context, unit string, payload []byte) (dispatch.Ack, error) {
	out, err := c.api.Invoke(ctx, &awslambda.InvokeInput{
		FunctionName:   aws.String(unit),
		InvocationType: types.InvocationTypeEvent,
		Payload:        payload,
	})
	if err != nil {
		return dispatch.Ack{}, fmt.Errorf("invoke %s: %w", unit, err)
	}

	status := int(out.StatusCode)
	if out.FunctionError != nil {
		return dispatch.Ack{StatusCode: status}, fmt.Errorf("invoke %s: function error: %s", unit, aws.ToString(out.FunctionError))
	}
	if status != http.StatusAccepted {
		return dispatch.Ack{StatusCode: status}, fmt.Errorf("invoke %s: unexpected status %d", unit, status)
	}

	c.logger.Debug("lambda invoked", "function", unit, "status", status)
	return dispatch.Ack{StatusCode: status}, nil
}
