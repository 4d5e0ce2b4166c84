package metrics

import (
	"context"
	"log"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

const (
	namespace                = "MAGDA/Theory"
	httpStatusServerError    = 500
	cloudwatchTimeoutSeconds = 5
)

// Client wraps CloudWatch client for custom metrics
type Client struct {
	client      *cloudwatch.Client
	enabled     bool
	environment string
}

// NewClient creates a new CloudWatch metrics client
func NewClient(ctx context.Context, environment string) (*Client, error) {
	// Only enable in production
	if environment != "production" {
		log.Printf("📊 CloudWatch Metrics: DISABLED (environment: %s)", environment)
		return &Client{
			enabled:     false,
			environment: environment,
		}, nil
	}

	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		log.Printf("⚠️  Failed to load AWS config for CloudWatch: %v", err)
		return &Client{enabled: false, environment: environment}, nil
	}

	client := cloudwatch.NewFromConfig(cfg)
	log.Printf("📊 CloudWatch Metrics: ✅ ENABLED (namespace: %s)", namespace)

	return &Client{
		client:      client,
		enabled:     true,
		environment: environment,
	}, nil
}

// Enabled reports whether metrics are being sent.
func (m *Client) Enabled() bool {
	return m != nil && m.enabled
}

// RecordAPIRequest records an API request metric
func (m *Client) RecordAPIRequest(endpoint string, statusCode int, duration time.Duration) {
	if !m.Enabled() {
		return
	}

	go func() {
		ctx := context.Background()
		metricName := "APIRequests"
		if statusCode >= httpStatusServerError {
			metricName = "APIErrors"
		}

		dimensions := []types.Dimension{
			{
				Name:  aws.String("Endpoint"),
				Value: aws.String(endpoint),
			},
			{
				Name:  aws.String("Environment"),
				Value: aws.String(m.environment),
			},
		}

		if err := m.putMetric(ctx, metricName, 1, types.StandardUnitCount, dimensions); err != nil {
			log.Printf("Failed to record %s metric: %v", metricName, err)
		}

		latencyMs := float64(duration.Milliseconds())
		if err := m.putMetric(ctx, "APILatency", latencyMs, types.StandardUnitMilliseconds, dimensions); err != nil {
			log.Printf("Failed to record APILatency metric: %v", err)
		}
	}()
}

// RecordResolution records one engine call and the number of notes it
// produced. Failed calls are counted under ResolutionErrors.
func (m *Client) RecordResolution(operation string, notes int, success bool) {
	if !m.Enabled() {
		return
	}

	go func() {
		ctx := context.Background()
		dimensions := []types.Dimension{
			{
				Name:  aws.String("Operation"),
				Value: aws.String(operation),
			},
			{
				Name:  aws.String("Environment"),
				Value: aws.String(m.environment),
			},
		}

		if !success {
			if err := m.putMetric(ctx, "ResolutionErrors", 1, types.StandardUnitCount, dimensions); err != nil {
				log.Printf("Failed to record ResolutionErrors metric: %v", err)
			}
			return
		}

		if err := m.putMetric(ctx, "Resolutions", 1, types.StandardUnitCount, dimensions); err != nil {
			log.Printf("Failed to record Resolutions metric: %v", err)
		}
		if err := m.putMetric(ctx, "ResolvedNotes", float64(notes), types.StandardUnitCount, dimensions); err != nil {
			log.Printf("Failed to record ResolvedNotes metric: %v", err)
		}
	}()
}

// RecordRegistryChange records a scale or chord type being added.
func (m *Client) RecordRegistryChange(registry string) {
	if !m.Enabled() {
		return
	}

	go func() {
		dimensions := []types.Dimension{
			{
				Name:  aws.String("Registry"),
				Value: aws.String(registry),
			},
			{
				Name:  aws.String("Environment"),
				Value: aws.String(m.environment),
			},
		}
		if err := m.putMetric(context.Background(), "RegistryChanges", 1, types.StandardUnitCount, dimensions); err != nil {
			log.Printf("Failed to record RegistryChanges metric: %v", err)
		}
	}()
}

// putMetric sends a metric to CloudWatch
func (m *Client) putMetric(
	_ context.Context,
	metricName string,
	value float64,
	unit types.StandardUnit,
	dimensions []types.Dimension,
) error {
	if !m.enabled || m.client == nil {
		return nil
	}

	timeout := time.Duration(cloudwatchTimeoutSeconds) * time.Second
	cwCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	_, err := m.client.PutMetricData(cwCtx, &cloudwatch.PutMetricDataInput{
		Namespace: aws.String(namespace),
		MetricData: []types.MetricDatum{
			{
				MetricName: aws.String(metricName),
				Value:      aws.Float64(value),
				Unit:       unit,
				Timestamp:  aws.Time(time.Now()),
				Dimensions: dimensions,
			},
		},
	})

	return err
}
