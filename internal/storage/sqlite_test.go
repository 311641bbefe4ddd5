package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coastalmech/apflow/internal/model"
)

func testStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	store, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "apflow.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.Migrate(context.Background()))
	return store
}

func sampleRecord(document string) model.CanonicalRecord {
	return model.CanonicalRecord{
		Document:          document,
		CompanyCode:       "10",
		BatchCode:         "090125",
		VendorCode:        "ACME01",
		VendorName:        "ACME Supply Co",
		Type:              model.InvoiceTypeIncoming,
		InvoiceNumber:     "88412",
		InvoiceDate:       "07/23/25",
		GLDate:            "07/23/25",
		InvoiceAmount:     model.MoneyFromCents(132263),
		AmountBeforeTaxes: model.MoneyFromCents(121550),
		TaxAmount:         model.MoneyFromCents(10713),
		PONumber:          "4601",
		GLAccount:         "5010",
		PhaseCode:         "010",
		CostType:          "M",
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	store := testStorage(t)
	require.NoError(t, store.Migrate(context.Background()))
}

func TestSaveAndListCanonicalRecords(t *testing.T) {
	store := testStorage(t)
	ctx := context.Background()

	require.NoError(t, store.SaveCanonicalRecord(ctx, sampleRecord("invoice_002")))
	require.NoError(t, store.SaveCanonicalRecord(ctx, sampleRecord("invoice_001")))

	records, err := store.ListCanonicalRecords(ctx, "090125")
	require.NoError(t, err)
	require.Len(t, records, 2)

	// Ordered by document key.
	assert.Equal(t, "invoice_001", records[0].Document)
	assert.Equal(t, "invoice_002", records[1].Document)

	rec := records[0]
	assert.Equal(t, "ACME01", rec.VendorCode)
	assert.Equal(t, model.InvoiceTypeIncoming, rec.Type)
	assert.Equal(t, int64(132263), rec.InvoiceAmount.Cents)
	assert.True(t, rec.InvoiceAmount.Valid)
	assert.Equal(t, "4601", rec.PONumber)
	assert.Equal(t, "5010", rec.GLAccount)
}

func TestSaveCanonicalRecordUpserts(t *testing.T) {
	store := testStorage(t)
	ctx := context.Background()

	rec := sampleRecord("invoice_001")
	require.NoError(t, store.SaveCanonicalRecord(ctx, rec))

	rec.GLAccount = "6010"
	rec.InvoiceAmount = model.MoneyFromCents(99999)
	require.NoError(t, store.SaveCanonicalRecord(ctx, rec))

	records, err := store.ListCanonicalRecords(ctx, "090125")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "6010", records[0].GLAccount)
	assert.Equal(t, int64(99999), records[0].InvoiceAmount.Cents)
}

func TestAbsentAmountsRoundTripAsNull(t *testing.T) {
	store := testStorage(t)
	ctx := context.Background()

	rec := sampleRecord("invoice_001")
	rec.TaxAmount = model.Money{}
	rec.ShippingCharges = model.Money{}
	require.NoError(t, store.SaveCanonicalRecord(ctx, rec))

	records, err := store.ListCanonicalRecords(ctx, "090125")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.False(t, records[0].TaxAmount.Valid)
	assert.False(t, records[0].ShippingCharges.Valid)
	assert.True(t, records[0].InvoiceAmount.Valid)
}

func TestSaveCanonicalRecordValidation(t *testing.T) {
	store := testStorage(t)
	ctx := context.Background()

	rec := sampleRecord("invoice_001")
	rec.GLAccount = ""
	err := store.SaveCanonicalRecord(ctx, rec)
	assert.ErrorIs(t, err, ErrInvalidRecord)

	rec = sampleRecord("invoice_001")
	rec.Type = "X"
	err = store.SaveCanonicalRecord(ctx, rec)
	assert.ErrorIs(t, err, ErrInvalidRecord)
}

func TestRecordAndListSkips(t *testing.T) {
	store := testStorage(t)
	ctx := context.Background()

	require.NoError(t, store.RecordSkip(ctx, "090125", model.SkippedDocument{
		Document:   "invoice_007",
		Reason:     model.SkipUnparsablePayload,
		Detail:     "no JSON object found in response",
		RawPayload: "garbled output",
	}))
	require.NoError(t, store.RecordSkip(ctx, "090125", model.SkippedDocument{
		Document: "invoice_009",
		Reason:   model.SkipVendorRejected,
		Detail:   "rejected during vendor review",
	}))

	skips, err := store.ListSkips(ctx, "090125")
	require.NoError(t, err)
	require.Len(t, skips, 2)
	assert.Equal(t, "invoice_007", skips[0].Document)
	assert.Equal(t, model.SkipUnparsablePayload, skips[0].Reason)
	assert.Equal(t, "garbled output", skips[0].RawPayload)
	assert.Equal(t, model.SkipVendorRejected, skips[1].Reason)

	other, err := store.ListSkips(ctx, "090225")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestBatchRunLifecycle(t *testing.T) {
	store := testStorage(t)
	ctx := context.Background()

	require.NoError(t, store.StartBatchRun(ctx, "run-1", "090125", 42))

	run, err := store.GetBatchRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, 42, run.DocumentsTotal)
	assert.Nil(t, run.CompletedAt)

	require.NoError(t, store.CompleteBatchRun(ctx, "run-1", 39, 3, true))

	run, err = store.GetBatchRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, 39, run.DocumentsSaved)
	assert.Equal(t, 3, run.DocumentsSkipped)
	assert.True(t, run.POGateBypassed)
	assert.NotNil(t, run.CompletedAt)
}

func TestCompleteBatchRunUnknownID(t *testing.T) {
	store := testStorage(t)
	err := store.CompleteBatchRun(context.Background(), "missing", 0, 0, false)
	assert.Error(t, err)
}

func TestNewSQLiteStorageEmptyPath(t *testing.T) {
	_, err := NewSQLiteStorage("  ")
	assert.ErrorIs(t, err, ErrEmptyString)
}
