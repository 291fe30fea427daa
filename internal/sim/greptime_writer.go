package sim

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"time"

	gpb "github.com/GreptimeTeam/greptime-proto/go/greptime/v1"
	greptime "github.com/GreptimeTeam/greptimedb-ingester-go"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table/types"

	"swarmlink-sim/internal/telemetry"
)

// greptimeClient is the subset of the ingester client the writer needs.
type greptimeClient interface {
	Write(ctx context.Context, tables ...*table.Table) (*gpb.GreptimeResponse, error)
}

// GreptimeDBWriter writes positions, swarm state and attack events to
// GreptimeDB via the ingester client.
type GreptimeDBWriter struct {
	client        greptimeClient
	stateTable    string
	eventTable    string
	positionTable string
	timeout       time.Duration
	log           *slog.Logger
}

// NewGreptimeDBWriter connects to endpoint (host or host:port, gRPC port
// 4001 by default). Empty table names fall back to the telemetry defaults.
func NewGreptimeDBWriter(endpoint, database, stateTable, eventTable, positionTable string) (*GreptimeDBWriter, error) {
	host, port := endpoint, 4001
	if h, p, err := net.SplitHostPort(endpoint); err == nil {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid greptime port %q: %w", p, err)
		}
		host, port = h, n
	}
	if database == "" {
		database = "public"
	}
	cfg := greptime.NewConfig(host).WithPort(port).WithDatabase(database)
	client, err := greptime.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("greptime client: %w", err)
	}
	if stateTable == "" {
		stateTable = telemetry.SwarmStateTableName
	}
	if eventTable == "" {
		eventTable = telemetry.AttackEventTableName
	}
	if positionTable == "" {
		positionTable = telemetry.DronePositionTableName
	}
	return &GreptimeDBWriter{
		client:        client,
		stateTable:    stateTable,
		eventTable:    eventTable,
		positionTable: positionTable,
		timeout:       5 * time.Second,
		log:           slog.Default(),
	}, nil
}

func (w *GreptimeDBWriter) write(tbl *table.Table, rows int) error {
	timeout := w.timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if _, err := w.client.Write(ctx, tbl); err != nil {
		return fmt.Errorf("greptime write %d rows: %w", rows, err)
	}
	if w.log != nil {
		w.log.Debug("greptime write", "rows", rows)
	}
	return nil
}

// WriteFrame inserts one position row per drone.
func (w *GreptimeDBWriter) WriteFrame(f telemetry.FrameRow) error {
	if len(f.Drones) == 0 {
		return nil
	}
	tbl, err := table.New(w.positionTable)
	if err != nil {
		return err
	}
	if err := addColumns(tbl,
		tagCol("cluster_id", types.STRING),
		tagCol("drone_id", types.INT64),
		fieldCol("x", types.FLOAT64),
		fieldCol("y", types.FLOAT64),
		fieldCol("status", types.STRING),
		fieldCol("recovery_timer", types.INT64),
		fieldCol("battery", types.FLOAT64),
		fieldCol("on_path", types.BOOLEAN),
		timeCol("ts"),
	); err != nil {
		return err
	}
	onPath := make(map[int]bool, len(f.Path))
	for _, id := range f.Path {
		onPath[id] = true
	}
	for _, d := range f.Drones {
		if err := tbl.AddRow(f.ClusterID, int64(d.ID), d.X, d.Y, d.Status.String(), int64(d.RecoveryTimer), d.Battery, onPath[d.ID], f.Timestamp); err != nil {
			return err
		}
	}
	return w.write(tbl, len(f.Drones))
}

// WriteState inserts a single swarm state row.
func (w *GreptimeDBWriter) WriteState(row telemetry.SwarmStateRow) error {
	return w.WriteStates([]telemetry.SwarmStateRow{row})
}

// WriteStates inserts multiple swarm state rows in one request.
func (w *GreptimeDBWriter) WriteStates(rows []telemetry.SwarmStateRow) error {
	if len(rows) == 0 {
		return nil
	}
	tbl, err := table.New(w.stateTable)
	if err != nil {
		return err
	}
	if err := addColumns(tbl,
		tagCol("cluster_id", types.STRING),
		fieldCol("tick", types.INT64),
		fieldCol("total", types.INT64),
		fieldCol("healthy", types.INT64),
		fieldCol("jammed", types.INT64),
		fieldCol("hijacked", types.INT64),
		fieldCol("path_active", types.BOOLEAN),
		fieldCol("path_hops", types.INT64),
		fieldCol("full_edges", types.INT64),
		fieldCol("trusted_edges", types.INT64),
		timeCol("ts"),
	); err != nil {
		return err
	}
	for _, r := range rows {
		if err := tbl.AddRow(r.ClusterID, r.Tick, int64(r.Total), int64(r.Healthy), int64(r.Jammed), int64(r.Hijacked),
			r.PathActive, int64(r.PathHops), int64(r.FullEdges), int64(r.TrustedEdges), r.Timestamp); err != nil {
			return err
		}
	}
	return w.write(tbl, len(rows))
}

// WriteAttackEvent inserts an attack event row. An auto target is stored
// as requested id -1.
func (w *GreptimeDBWriter) WriteAttackEvent(e telemetry.AttackEventRow) error {
	tbl, err := table.New(w.eventTable)
	if err != nil {
		return err
	}
	if err := addColumns(tbl,
		tagCol("cluster_id", types.STRING),
		tagCol("action", types.STRING),
		fieldCol("requested", types.INT64),
		fieldCol("drone_id", types.INT64),
		fieldCol("applied", types.BOOLEAN),
		fieldCol("affected", types.INT64),
		fieldCol("tick", types.INT64),
		timeCol("ts"),
	); err != nil {
		return err
	}
	requested := int64(-1)
	if e.Requested != nil {
		requested = int64(*e.Requested)
	}
	if err := tbl.AddRow(e.ClusterID, e.Action, requested, int64(e.DroneID), e.Applied, int64(e.Affected), e.Tick, e.Timestamp); err != nil {
		return err
	}
	return w.write(tbl, 1)
}

type column struct {
	name string
	typ  types.ColumnType
	kind int
}

const (
	kindTag = iota
	kindField
	kindTime
)

func tagCol(name string, typ types.ColumnType) column   { return column{name, typ, kindTag} }
func fieldCol(name string, typ types.ColumnType) column { return column{name, typ, kindField} }
func timeCol(name string) column                        { return column{name, types.TIMESTAMP_MILLISECOND, kindTime} }

func addColumns(tbl *table.Table, cols ...column) error {
	for _, c := range cols {
		var err error
		switch c.kind {
		case kindTag:
			err = tbl.AddTagColumn(c.name, c.typ)
		case kindField:
			err = tbl.AddFieldColumn(c.name, c.typ)
		case kindTime:
			err = tbl.AddTimestampColumn(c.name, c.typ)
		}
		if err != nil {
			return fmt.Errorf("column %s: %w", c.name, err)
		}
	}
	return nil
}
