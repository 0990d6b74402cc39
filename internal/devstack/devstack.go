// Package devstack starts the containers a local docsdb server needs: the
// database, the Authorizer and, for the s3 storage backend, MinIO. It expects
// the environment to be loaded from a .env file.
package devstack

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	"github.com/docker/go-connections/nat"
	_ "github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/network"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	authzNetworkName = "authorizer"
	minioNetworkName = "minio"
	minioPort        = "9000/tcp"
)

// Stack holds the running containers
type Stack struct {
	Network             *testcontainers.DockerNetwork
	DBContainer         testcontainers.Container
	AuthorizerContainer testcontainers.Container
	MinioContainer      testcontainers.Container

	// Env is what a server on the host needs to reach the stack
	Env map[string]string
}

// Terminate stops every container that was started, then removes the network
func (s *Stack) Terminate(ctx context.Context) {
	containers := []struct {
		name      string
		container testcontainers.Container
	}{
		{"MinIO", s.MinioContainer},
		{"Authorizer", s.AuthorizerContainer},
		{"Database", s.DBContainer},
	}
	for _, c := range containers {
		if c.container == nil {
			continue
		}
		if err := c.container.Terminate(ctx); err != nil {
			logrus.Warnf("Failed to terminate %s: %v", c.name, err)
		}
	}
	if s.Network != nil {
		if err := s.Network.Remove(ctx); err != nil {
			logrus.Warnf("Failed to remove network: %v", err)
		}
	}
}

// Start brings the stack up. On error, whatever was started is terminated.
func Start(ctx context.Context) (*Stack, error) {
	stack := &Stack{Env: make(map[string]string)}
	if err := stack.start(ctx); err != nil {
		stack.Terminate(ctx)
		return nil, err
	}
	return stack, nil
}

func (s *Stack) start(ctx context.Context) error {
	nw, err := network.New(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to create network")
	}
	s.Network = nw

	if err := s.startDatabase(ctx); err != nil {
		return err
	}
	if err := s.startAuthorizer(ctx); err != nil {
		return err
	}
	if os.Getenv("STORAGE_BACKEND") == "s3" {
		if err := s.startMinio(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (s *Stack) startDatabase(ctx context.Context) error {
	dbType := os.Getenv("DB_TYPE")
	tcpDbPort, err := nat.NewPort("tcp", os.Getenv("DB_PORT"))
	if err != nil {
		return errors.Wrap(err, "failed to create DB port")
	}

	dbContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        os.Getenv("DB_IMAGE"),
			ExposedPorts: []string{string(tcpDbPort)},
			Env:          dbInitEnv(dbType),
			WaitingFor:   wait.ForListeningPort(tcpDbPort).WithStartupTimeout(60 * time.Second),
			Networks:     []string{s.Network.Name},
			NetworkAliases: map[string][]string{
				s.Network.Name: {os.Getenv("DB_HOST")},
			},
		},
		Started: true,
	})
	if err != nil {
		return errors.Wrap(err, "failed to start database")
	}
	s.DBContainer = dbContainer

	host, err := dbContainer.Host(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to read database host")
	}
	port, err := dbContainer.MappedPort(ctx, tcpDbPort)
	if err != nil {
		return errors.Wrap(err, "failed to read database port")
	}

	switch dbType {
	case "mysql", "mariadb":
		if err := initMySQL(host, port); err != nil {
			return err
		}
	default:
		return errors.Errorf("database type %q is not supported by the dev stack", dbType)
	}

	s.Env["DB_HOST"] = host
	s.Env["DB_PORT"] = port.Port()
	return nil
}

func (s *Stack) startAuthorizer(ctx context.Context) error {
	tcpAuthzPort, err := nat.NewPort("tcp", os.Getenv("AUTHZ_PORT"))
	if err != nil {
		return errors.Wrap(err, "failed to create Authorizer port")
	}

	logLevel := "info"
	if os.Getenv("DEBUG_CONTAINER") == "true" {
		logLevel = "debug"
	}
	dbURL := fmt.Sprintf("root:%s@tcp(%s:%s)/%s", os.Getenv("DB_ROOT_PASSWORD"), os.Getenv("DB_HOST"), os.Getenv("DB_PORT"), os.Getenv("AUTHZ_DATABASE"))

	authorizerContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        os.Getenv("AUTHZ_IMAGE"),
			ExposedPorts: []string{string(tcpAuthzPort)},
			Env: map[string]string{
				"ENV":           "production",
				"CLIENT_ID":     os.Getenv("AUTHZ_CLIENT_ID"),
				"PORT":          os.Getenv("AUTHZ_PORT"),
				"DATABASE_TYPE": os.Getenv("DB_TYPE"),
				"DATABASE_NAME": os.Getenv("AUTHZ_DATABASE"),
				"DATABASE_URL":  dbURL,
				"ADMIN_SECRET":  os.Getenv("AUTHZ_ADMIN_SECRET"),
				"ROLES":         "admin,user",
				"DEFAULT_ROLES": "user",
				"LOG_LEVEL":     logLevel,
			},
			WaitingFor: wait.ForLog("Authorizer running at PORT:").WithStartupTimeout(10 * time.Second),
			Networks:   []string{s.Network.Name},
			NetworkAliases: map[string][]string{
				s.Network.Name: {authzNetworkName},
			},
		},
		Started: true,
	})
	if err != nil {
		return errors.Wrap(err, "failed to start Authorizer")
	}
	s.AuthorizerContainer = authorizerContainer

	host, _ := authorizerContainer.Host(ctx)
	port, _ := authorizerContainer.MappedPort(ctx, tcpAuthzPort)
	s.Env["AUTHZ_URL"] = fmt.Sprintf("http://%s:%s", host, port.Port())
	return nil
}

func (s *Stack) startMinio(ctx context.Context) error {
	image := os.Getenv("MINIO_IMAGE")
	if image == "" {
		image = "minio/minio:latest"
	}
	bucket := os.Getenv("S3_BUCKET")

	minioContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        image,
			ExposedPorts: []string{minioPort},
			Env: map[string]string{
				"MINIO_ROOT_USER":     os.Getenv("S3_ACCESS_KEY_ID"),
				"MINIO_ROOT_PASSWORD": os.Getenv("S3_SECRET_ACCESS_KEY"),
			},
			// The bucket is a directory under the data root
			Entrypoint: []string{"sh", "-c", fmt.Sprintf("mkdir -p /data/%s && minio server /data", bucket)},
			WaitingFor: wait.ForHTTP("/minio/health/live").WithPort(minioPort).WithStartupTimeout(30 * time.Second),
			Networks:   []string{s.Network.Name},
			NetworkAliases: map[string][]string{
				s.Network.Name: {minioNetworkName},
			},
		},
		Started: true,
	})
	if err != nil {
		return errors.Wrap(err, "failed to start MinIO")
	}
	s.MinioContainer = minioContainer

	host, _ := minioContainer.Host(ctx)
	port, _ := minioContainer.MappedPort(ctx, minioPort)
	s.Env["S3_ENDPOINT"] = fmt.Sprintf("http://%s:%s", host, port.Port())
	return nil
}

func dbInitEnv(dbType string) map[string]string {
	switch dbType {
	case "mariadb", "mysql":
		return map[string]string{
			"MYSQL_ROOT_PASSWORD": os.Getenv("DB_ROOT_PASSWORD"),
			"MYSQL_DATABASE":      os.Getenv("DB_DATABASE"),
			"MYSQL_USER":          os.Getenv("DB_USER"),
			"MYSQL_PASSWORD":      os.Getenv("DB_PASSWORD"),
		}
	}
	return nil
}

// initMySQL creates the Authorizer database next to the docsdb one
func initMySQL(host string, port nat.Port) error {
	db, err := sql.Open("mysql", fmt.Sprintf("root:%s@tcp(%s:%s)/", os.Getenv("DB_ROOT_PASSWORD"), host, port.Port()))
	if err != nil {
		return errors.Wrap(err, "failed to connect to the database for setup")
	}
	defer db.Close()

	for i := 0; i < 30; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		time.Sleep(time.Second)
	}
	if err != nil {
		return errors.Wrap(err, "database not ready after 30 seconds")
	}

	statements := []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", os.Getenv("AUTHZ_DATABASE")),
		fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s.authorizer_users (id CHAR(36) NOT NULL PRIMARY KEY)", os.Getenv("AUTHZ_DATABASE")),
		fmt.Sprintf("GRANT ALL PRIVILEGES ON %s.* TO '%s'@'%%'", os.Getenv("DB_DATABASE"), os.Getenv("DB_USER")),
		"FLUSH PRIVILEGES",
	}
	for _, statement := range statements {
		if _, err := db.Exec(statement); err != nil {
			return errors.Wrapf(err, "when executing > %s", statement)
		}
	}
	return nil
}
