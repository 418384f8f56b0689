package integration

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	defaultMinioTestImage = "docker.io/minio/minio:RELEASE.2025-09-07T16-13-09Z"
	minioTestUser         = "minioadmin"
	minioTestPassword     = "minioadmin"
)

type minioEnv struct {
	endpoint string
	bucket   string
	client   *minio.Client
}

// newMinIOEnv starts a throwaway MinIO server. The test is skipped when no
// container runtime is reachable.
func newMinIOEnv(t *testing.T) *minioEnv {
	t.Helper()
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	image := strings.TrimSpace(os.Getenv("MINIO_TEST_IMAGE"))
	if image == "" {
		image = defaultMinioTestImage
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image: image,
			Env: map[string]string{
				"MINIO_ROOT_USER":     minioTestUser,
				"MINIO_ROOT_PASSWORD": minioTestPassword,
			},
			ExposedPorts: []string{"9000/tcp"},
			Cmd:          []string{"server", "/data", "--address", ":9000"},
			WaitingFor:   wait.ForListeningPort("9000/tcp").WithStartupTimeout(45 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("start minio container: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("minio host: %v", err)
	}
	port, err := container.MappedPort(ctx, "9000/tcp")
	if err != nil {
		t.Fatalf("minio port: %v", err)
	}
	endpoint := net.JoinHostPort(host, port.Port())
	client, err := minio.New(endpoint, &minio.Options{Creds: credentials.NewStaticV4(minioTestUser, minioTestPassword, "")})
	if err != nil {
		t.Fatalf("minio client: %v", err)
	}
	waitForMinIO(t, client)
	return &minioEnv{endpoint: endpoint, bucket: fmt.Sprintf("avatars-it-%d", time.Now().UnixNano()), client: client}
}

func waitForMinIO(t *testing.T, client *minio.Client) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()
	for {
		_, err := client.ListBuckets(ctx)
		if err == nil {
			return
		}
		select {
		case <-ctx.Done():
			t.Fatalf("minio not ready: %v", err)
		case <-ticker.C:
		}
	}
}

// serverEnv is the env block that points the app at this MinIO.
func (e *minioEnv) serverEnv() map[string]string {
	return map[string]string{
		"AVATAR_STORAGE_ENABLED": "true",
		"MINIO_ENDPOINT":         e.endpoint,
		"MINIO_ACCESS_KEY":       minioTestUser,
		"MINIO_SECRET_KEY":       minioTestPassword,
		"MINIO_BUCKET":           e.bucket,
		"MINIO_PUBLIC_BASE_URL":  "http://cdn.example.test",
	}
}

func (e *minioEnv) objectExists(t *testing.T, key string) bool {
	t.Helper()
	_, err := e.client.StatObject(context.Background(), e.bucket, key, minio.StatObjectOptions{})
	if err == nil {
		return true
	}
	var resp minio.ErrorResponse
	if errors.As(err, &resp) && (resp.Code == "NoSuchKey" || resp.Code == "NoSuchBucket") {
		return false
	}
	t.Fatalf("stat %q: %v", key, err)
	return false
}

func (e *minioEnv) statObject(t *testing.T, key string) minio.ObjectInfo {
	t.Helper()
	info, err := e.client.StatObject(context.Background(), e.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		t.Fatalf("stat %q: %v", key, err)
	}
	return info
}
