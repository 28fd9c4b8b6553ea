package bigquery

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/goforsam/toast-api/pkg/config"
	"github.com/goforsam/toast-api/pkg/logger"
)

const (
	metadataCheckTimeout = 10 * time.Second
)

type Client struct {
	client    *bigquery.Client
	dataset   *bigquery.Dataset
	projectID string
	datasetID string
}

var (
	errProjectIDRequired    = errors.New("gcp project id is required")
	errDatasetRequired      = errors.New("bigquery dataset is required")
	errTableNameRequired    = errors.New("bigquery table name is required")
	errClientNotInitialized = errors.New("bigquery client not initialized")
)

type Pinger interface {
	Ping(context.Context) error
}

// NewClient creates a BigQuery client and verifies the configured dataset exists.
func NewClient(ctx context.Context, gcp config.GCPConfig, cfg config.BigQueryConfig, logg *logger.Logger) (*Client, error) {
	projectID := strings.TrimSpace(gcp.ProjectID)
	if projectID == "" {
		return nil, errProjectIDRequired
	}

	datasetID := strings.TrimSpace(cfg.Dataset)
	if datasetID == "" {
		return nil, errDatasetRequired
	}

	opts := clientOptions(gcp)
	bqClient, err := bigquery.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating bigquery client: %w", err)
	}

	client := &Client{
		client:    bqClient,
		dataset:   bqClient.Dataset(datasetID),
		projectID: projectID,
		datasetID: datasetID,
	}

	if err := client.ensureDataset(ctx); err != nil {
		_ = bqClient.Close()
		return nil, err
	}

	if logg != nil {
		logg.Info(ctx, "bigquery client initialized")
	}

	return client, nil
}

func clientOptions(gcp config.GCPConfig) []option.ClientOption {
	var opts []option.ClientOption
	switch {
	case strings.TrimSpace(gcp.CredentialsJSON) != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(gcp.CredentialsJSON)))
	case strings.TrimSpace(gcp.ApplicationCredentials) != "":
		opts = append(opts, option.WithCredentialsFile(gcp.ApplicationCredentials))
	}
	return opts
}

func (c *Client) ensureDataset(ctx context.Context) error {
	if c == nil || c.dataset == nil {
		return errClientNotInitialized
	}

	ctx, cancel := context.WithTimeout(ctx, metadataCheckTimeout)
	defer cancel()

	if _, err := c.dataset.Metadata(ctx); err != nil {
		if isNotFound(err) {
			return fmt.Errorf("dataset %q does not exist", c.dataset.DatasetID)
		}
		return fmt.Errorf("checking dataset %q: %w", c.dataset.DatasetID, err)
	}

	return nil
}

// Ping verifies the dataset is accessible.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil {
		return errClientNotInitialized
	}
	return c.ensureDataset(ctx)
}

// QualifiedTable returns the backquoted project.dataset.table identifier for SQL.
func (c *Client) QualifiedTable(table string) string {
	return fmt.Sprintf("`%s.%s.%s`", c.projectID, c.datasetID, table)
}

// TableExists reports whether the named table exists in the dataset.
func (c *Client) TableExists(ctx context.Context, table string) (bool, error) {
	if c == nil || c.client == nil {
		return false, errClientNotInitialized
	}
	if strings.TrimSpace(table) == "" {
		return false, errTableNameRequired
	}
	if _, err := c.dataset.Table(table).Metadata(ctx); err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("checking table %q: %w", table, err)
	}
	return true, nil
}

// CreateTable creates the named table with the given metadata.
func (c *Client) CreateTable(ctx context.Context, table string, meta *bigquery.TableMetadata) error {
	if c == nil || c.client == nil {
		return errClientNotInitialized
	}
	if strings.TrimSpace(table) == "" {
		return errTableNameRequired
	}
	if err := c.dataset.Table(table).Create(ctx, meta); err != nil {
		return fmt.Errorf("creating table %q: %w", table, err)
	}
	return nil
}

// EnsureTable creates the named table if it does not already exist.
func (c *Client) EnsureTable(ctx context.Context, table string, meta *bigquery.TableMetadata) error {
	exists, err := c.TableExists(ctx, table)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	if err := c.CreateTable(ctx, table, meta); err != nil {
		// A concurrent invocation may have created it between the check and the create.
		if isAlreadyExists(err) {
			return nil
		}
		return err
	}
	return nil
}

// DeleteTable removes the named table, ignoring missing tables.
func (c *Client) DeleteTable(ctx context.Context, table string) error {
	if c == nil || c.client == nil {
		return errClientNotInitialized
	}
	if strings.TrimSpace(table) == "" {
		return errTableNameRequired
	}
	if err := c.dataset.Table(table).Delete(ctx); err != nil && !isNotFound(err) {
		return fmt.Errorf("deleting table %q: %w", table, err)
	}
	return nil
}

// InsertRows sends rows to the given table in the configured dataset.
func (c *Client) InsertRows(ctx context.Context, table string, rows []any) error {
	if c == nil || c.client == nil {
		return errClientNotInitialized
	}
	if strings.TrimSpace(table) == "" {
		return errTableNameRequired
	}
	if len(rows) == 0 {
		return nil
	}

	insertCtx := ctx
	if insertCtx == nil {
		insertCtx = context.Background()
	}

	inserter := c.dataset.Table(strings.TrimSpace(table)).Inserter()
	return inserter.Put(insertCtx, rows)
}

// Query executes SQL against BigQuery and returns the row iterator.
func (c *Client) Query(ctx context.Context, sql string, params []bigquery.QueryParameter) (*bigquery.RowIterator, error) {
	if c == nil || c.client == nil {
		return nil, errClientNotInitialized
	}
	if strings.TrimSpace(sql) == "" {
		return nil, errors.New("sql query is required")
	}
	q := c.client.Query(sql)
	q.Parameters = params
	return q.Read(ctx)
}

// Exec runs a DML or DDL statement and returns the number of affected rows.
func (c *Client) Exec(ctx context.Context, sql string) (int64, error) {
	if c == nil || c.client == nil {
		return 0, errClientNotInitialized
	}
	if strings.TrimSpace(sql) == "" {
		return 0, errors.New("sql statement is required")
	}

	job, err := c.client.Query(sql).Run(ctx)
	if err != nil {
		return 0, fmt.Errorf("starting statement: %w", err)
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return 0, fmt.Errorf("waiting for statement: %w", err)
	}
	if err := status.Err(); err != nil {
		return 0, fmt.Errorf("statement failed: %w", err)
	}

	if stats, ok := status.Statistics.Details.(*bigquery.QueryStatistics); ok {
		return stats.NumDMLAffectedRows, nil
	}
	return 0, nil
}

// Close releases the BigQuery client.
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

func isNotFound(err error) bool {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr != nil {
		return apiErr.Code == http.StatusNotFound
	}
	return false
}

func isAlreadyExists(err error) bool {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr != nil {
		return apiErr.Code == http.StatusConflict
	}
	return false
}
