package oss

import (
	"fmt"
	"strings"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"

	"github.com/qs3c/comment_go_server/config"
)

type Client struct {
	client     *oss.Client
	bucket     *oss.Bucket
	bucketName string
	cdnDomain  string
	signExpire int64
}

func NewClient(cfg *config.OSSConfig) (*Client, error) {
	client, err := oss.New(cfg.Endpoint, cfg.AccessKeyID, cfg.AccessKeySecret)
	if err != nil {
		return nil, fmt.Errorf("failed to create OSS client: %w", err)
	}

	bucket, err := client.Bucket(cfg.BucketName)
	if err != nil {
		return nil, fmt.Errorf("failed to get bucket: %w", err)
	}

	return &Client{
		client:     client,
		bucket:     bucket,
		bucketName: cfg.BucketName,
		cdnDomain:  cfg.CDNDomain,
		signExpire: cfg.SignExpire,
	}, nil
}

// ObjectURL 附件访问地址，配置了签名有效期时返回签名 URL
func (c *Client) ObjectURL(objectKey string) (string, error) {
	if c.signExpire > 0 {
		return c.GetSignedURL(objectKey, c.signExpire)
	}
	return c.GetURL(objectKey), nil
}

// Delete 删除文件
func (c *Client) Delete(objectKey string) error {
	err := c.bucket.DeleteObject(objectKey)
	if err != nil {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}

// GetURL 获取文件访问 URL
func (c *Client) GetURL(objectKey string) string {
	if c.cdnDomain != "" {
		return fmt.Sprintf("https://%s/%s", c.cdnDomain, objectKey)
	}
	return fmt.Sprintf("https://%s.%s/%s", c.bucketName, c.client.Config.Endpoint, objectKey)
}

// GetSignedURL 生成带签名的临时访问URL（默认1小时有效）
func (c *Client) GetSignedURL(objectKey string, expireSeconds ...int64) (string, error) {
	expire := int64(3600)
	if len(expireSeconds) > 0 && expireSeconds[0] > 0 {
		expire = expireSeconds[0]
	}

	signedURL, err := c.bucket.SignURL(objectKey, oss.HTTPGet, expire)
	if err != nil {
		return "", fmt.Errorf("failed to generate signed URL: %w", err)
	}

	return signedURL, nil
}

// StaticURLs 未配置 OSS 时使用的地址拼接，适用于本地开发和测试
type StaticURLs struct {
	BaseURL string
}

func (s StaticURLs) ObjectURL(objectKey string) (string, error) {
	if objectKey == "" {
		return "", fmt.Errorf("empty object key")
	}
	return strings.TrimRight(s.BaseURL, "/") + "/" + strings.TrimLeft(objectKey, "/"), nil
}

func (s StaticURLs) Delete(objectKey string) error {
	return nil
}

// Store 附件对象存储
type Store interface {
	ObjectURL(objectKey string) (string, error)
	Delete(objectKey string) error
}

// Open 配置了 OSS 时连接 OSS，否则退回到按 CDN 域名拼接地址
func Open(cfg *config.OSSConfig) (Store, error) {
	if cfg.Endpoint == "" || cfg.AccessKeyID == "" {
		base := cfg.CDNDomain
		if base != "" && !strings.Contains(base, "://") {
			base = "https://" + base
		}
		return StaticURLs{BaseURL: base}, nil
	}
	return NewClient(cfg)
}
