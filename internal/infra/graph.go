// README: Neo4j (Bolt) client used for the optional friendship graph store.
package infra

import (
	"context"
	"errors"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// GraphRecord is one row of a Cypher result keyed by column name.
type GraphRecord map[string]any

// GraphClient is the minimal contract the stores need from a graph database.
type GraphClient interface {
	ExecuteRead(ctx context.Context, cypher string, params map[string]any) ([]GraphRecord, error)
	ExecuteWrite(ctx context.Context, cypher string, params map[string]any) ([]GraphRecord, error)
	Close(ctx context.Context) error
}

type GraphOptions struct {
	URI      string
	Database string
	Username string
	Password string
}

var ErrMissingGraphURI = errors.New("graph URI is required")

// NewGraph connects to Neo4j and verifies connectivity before returning.
func NewGraph(ctx context.Context, opts GraphOptions) (GraphClient, error) {
	if opts.URI == "" {
		return nil, ErrMissingGraphURI
	}
	auth := neo4j.NoAuth()
	if opts.Username != "" {
		auth = neo4j.BasicAuth(opts.Username, opts.Password, "")
	}
	driver, err := neo4j.NewDriverWithContext(opts.URI, auth)
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("verify graph connectivity: %w", err)
	}
	return &neo4jClient{driver: driver, database: opts.Database}, nil
}

type neo4jClient struct {
	driver   neo4j.DriverWithContext
	database string
}

func (c *neo4jClient) ExecuteRead(ctx context.Context, cypher string, params map[string]any) ([]GraphRecord, error) {
	return c.run(ctx, neo4j.AccessModeRead, cypher, params)
}

func (c *neo4jClient) ExecuteWrite(ctx context.Context, cypher string, params map[string]any) ([]GraphRecord, error) {
	return c.run(ctx, neo4j.AccessModeWrite, cypher, params)
}

func (c *neo4jClient) run(ctx context.Context, mode neo4j.AccessMode, cypher string, params map[string]any) ([]GraphRecord, error) {
	session := c.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: c.database, AccessMode: mode})
	defer session.Close(ctx)

	res, err := session.Run(ctx, cypher, params)
	if err != nil {
		return nil, err
	}
	var out []GraphRecord
	for res.Next(ctx) {
		rec := res.Record()
		row := make(GraphRecord, len(rec.Keys))
		for _, key := range rec.Keys {
			v, _ := rec.Get(key)
			row[key] = v
		}
		out = append(out, row)
	}
	return out, res.Err()
}

func (c *neo4jClient) Close(ctx context.Context) error {
	return c.driver.Close(ctx)
}
