package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// GatewayRequest 消息网关发送请求
type GatewayRequest struct {
	Channel string `json:"channel"`
	To      string `json:"to"`
	Subject string `json:"subject,omitempty"`
	Body    string `json:"body"`
}

// GatewayResponse 消息网关响应
type GatewayResponse struct {
	Status int    `json:"status"`
	Msg    string `json:"msg"`
}

// GatewayClient 外部消息网关 API 客户端
type GatewayClient struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

// NewGatewayClient 创建消息网关客户端
func NewGatewayClient(baseURL, apiKey string, timeout time.Duration, logger *zap.Logger) *GatewayClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(3).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(5 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetHeader("X-Api-Key", apiKey)

	return &GatewayClient{
		httpClient: client,
		logger:     logger,
	}
}

// SendMessage 发送一条消息
func (c *GatewayClient) SendMessage(ctx context.Context, channel, to, subject, body string) error {
	request := GatewayRequest{
		Channel: channel,
		To:      to,
		Subject: subject,
		Body:    body,
	}

	c.logger.Info("Calling message gateway: send",
		zap.String("channel", channel),
		zap.String("to", to),
	)

	var response GatewayResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(request).
		SetResult(&response).
		Post("/v1/messages")

	if err != nil {
		c.logger.Error("Message gateway call failed",
			zap.Error(err),
			zap.Int("status_code", resp.StatusCode()),
		)
		return fmt.Errorf("failed to call message gateway: %w", err)
	}

	if response.Status != 0 {
		c.logger.Error("Message gateway returned error",
			zap.Int("status", response.Status),
			zap.String("msg", response.Msg),
		)
		return fmt.Errorf("message gateway error: %s (status: %d)", response.Msg, response.Status)
	}

	return nil
}
