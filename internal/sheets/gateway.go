package sheets

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"
)

// Gateway is the set of spreadsheet operations the bot needs.
// All calls target the single configured spreadsheet.
type Gateway interface {
	// ListSheetNames returns tab titles in order; empty on failure.
	ListSheetNames(ctx context.Context) []string
	ReadRange(ctx context.Context, sheet, cellRange string) ([][]string, error)
	// WriteRange stores raw strings; a short row leaves trailing cells untouched.
	WriteRange(ctx context.Context, sheet, cellRange string, row []string) error
}

// GoogleGateway implements Gateway with the Google Sheets v4 API.
type GoogleGateway struct {
	svc           *gsheets.Service
	spreadsheetID string
	timeout       time.Duration
	log           *zap.Logger
}

// NewGoogleGateway authenticates with a service-account credentials file.
func NewGoogleGateway(ctx context.Context, spreadsheetID, credentialsFile string, timeout time.Duration, log *zap.Logger) (*GoogleGateway, error) {
	svc, err := gsheets.NewService(ctx,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(gsheets.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return &GoogleGateway{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		timeout:       timeout,
		log:           log,
	}, nil
}

func (g *GoogleGateway) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if g.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, g.timeout)
}

func (g *GoogleGateway) ListSheetNames(ctx context.Context) []string {
	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	resp, err := g.svc.Spreadsheets.Get(g.spreadsheetID).
		Fields("sheets.properties.title").
		Context(ctx).
		Do()
	if err != nil {
		g.log.Error("list sheets failed", zap.Error(err))
		return []string{}
	}

	names := make([]string, 0, len(resp.Sheets))
	for _, s := range resp.Sheets {
		if s.Properties == nil {
			continue
		}
		names = append(names, s.Properties.Title)
	}
	g.log.Debug("fetched sheet names", zap.Strings("sheets", names))
	return names
}

func (g *GoogleGateway) ReadRange(ctx context.Context, sheet, cellRange string) ([][]string, error) {
	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	rng := A1(sheet, cellRange)
	resp, err := g.svc.Spreadsheets.Values.Get(g.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}

	grid := make([][]string, len(resp.Values))
	for i, row := range resp.Values {
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = fmt.Sprint(v)
		}
		grid[i] = cells
	}
	return grid, nil
}

func (g *GoogleGateway) WriteRange(ctx context.Context, sheet, cellRange string, row []string) error {
	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	values := make([]interface{}, len(row))
	for i, v := range row {
		values[i] = v
	}

	rng := A1(sheet, cellRange)
	_, err := g.svc.Spreadsheets.Values.Update(g.spreadsheetID, rng, &gsheets.ValueRange{
		Values: [][]interface{}{values},
	}).ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("write %s: %w", rng, err)
	}
	return nil
}

// A1 builds a quoted A1 reference such as 'Лист 1'!B3:G3.
func A1(sheet, cellRange string) string {
	return "'" + strings.ReplaceAll(sheet, "'", "''") + "'!" + cellRange
}
