package storage

import (
	"bytes"
	"context"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Archive keeps copies of generated PDF reports in object storage. It is
// optional infrastructure: when unconfigured the reports service runs
// without it and downloads still work.
type Archive struct {
	client     *minio.Client
	bucketName string
	region     string
}

// New buat koneksi MinIO
func New(ctx context.Context, endpoint, region, bucket, accessKey, secretKey string, useSSL bool) (*Archive, error) {
	cli, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
		Region: region,
	})
	if err != nil {
		return nil, err
	}

	// pastikan bucket ada
	exists, err := cli.BucketExists(ctx, bucket)
	if err != nil {
		return nil, err
	}
	if !exists {
		if err := cli.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: region}); err != nil {
			return nil, err
		}
	}

	return &Archive{client: cli, bucketName: bucket, region: region}, nil
}

// Put implementasi reports.Archive — simpan PDF bytes di bucket.
func (a *Archive) Put(ctx context.Context, key string, pdf []byte) (string, error) {
	_, err := a.client.PutObject(ctx, a.bucketName, key, bytes.NewReader(pdf), int64(len(pdf)), minio.PutObjectOptions{
		ContentType: "application/pdf",
	})
	if err != nil {
		return "", err
	}

	// URL publik (jika bucket public), kalau private harus generate presigned URL
	url := fmt.Sprintf("http://%s/%s/%s", a.client.EndpointURL().Host, a.bucketName, key)
	return url, nil
}

// Check pings the object store; wired into the health endpoint.
func (a *Archive) Check(ctx context.Context) error {
	_, err := a.client.BucketExists(ctx, a.bucketName)
	return err
}
