// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"encoding/hex"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MKhiriev/go-kdbx/internal/config"
	"github.com/MKhiriev/go-kdbx/internal/crypto"
	"github.com/MKhiriev/go-kdbx/internal/editor"
	"github.com/MKhiriev/go-kdbx/internal/kdbx"
	"github.com/MKhiriev/go-kdbx/internal/logger"
	"github.com/MKhiriev/go-kdbx/internal/mock"
)

var testStreamKey = []byte("service-test-stream-key")

func testConfig(version int, alg crypto.StreamAlgorithm) config.StructuredConfig {
	return config.StructuredConfig{
		Document: config.Document{InputPath: "in.xml", OutputPath: "out.xml", Version: version},
		Crypto: config.Crypto{
			StreamAlgorithm: alg.String(),
			StreamKey:       hex.EncodeToString(testStreamKey),
		},
	}
}

// newTestDocumentSvc wires the service to a mocked store.
func newTestDocumentSvc(t *testing.T, cfg config.StructuredConfig) (*DocumentService, *mock.MockPayloadStore) {
	t.Helper()
	ctrl := gomock.NewController(t)
	store := mock.NewMockPayloadStore(ctrl)

	svc, err := NewDocumentService(store, cfg, logger.Nop())
	require.NoError(t, err)
	return svc, store
}

// samplePayload serializes a small database the way a KeePass writer using
// the test stream key would.
func samplePayload(t *testing.T, alg crypto.StreamAlgorithm, version int) []byte {
	t.Helper()
	doc := kdbx.NewDocument("Household")

	mail := kdbx.NewGroup(doc.RootGroup(), "Email")
	doc.RootGroup().AddChild(mail)

	e := doc.NewEntry(mail, nil)
	e.Title().SetClearValue("Webmail")
	e.UserName().SetClearValue("alice")
	e.Password().SetClearValue("hunter2")
	e.SetTags("personal")
	e.AddAttachment("readme.txt", kdbx.NewBinary([]byte("hello"), false))
	mail.AddChild(e)

	bank := doc.NewEntry(doc.RootGroup(), nil)
	bank.Title().SetClearValue("Bank")
	doc.RootGroup().AddChild(bank)

	rng, err := crypto.NewInnerStream(alg, testStreamKey)
	require.NoError(t, err)
	data, err := doc.WriteXML(rng, kdbx.ParamsFor(version))
	require.NoError(t, err)
	return data
}

// ── Load ─────────────────────────────────────────────────────────────────────

func TestDocumentService_Load_Success(t *testing.T) {
	for _, alg := range []crypto.StreamAlgorithm{crypto.StreamSalsa20, crypto.StreamChaCha20} {
		t.Run(alg.String(), func(t *testing.T) {
			svc, store := newTestDocumentSvc(t, testConfig(3, alg))
			ctx := context.Background()

			store.EXPECT().Load(ctx, "in.xml").Return(samplePayload(t, alg, 3), nil)

			doc, err := svc.Load(ctx)
			require.NoError(t, err)
			assert.Same(t, doc, svc.Document())

			found, err := svc.Search("webmail")
			require.NoError(t, err)
			require.Len(t, found, 1)
			entry := found[0].(*kdbx.Entry)
			assert.Equal(t, "hunter2", entry.Password().ClearValue())
			assert.Equal(t, "alice", entry.UserName().ClearValue())

			sum, err := svc.Summary()
			require.NoError(t, err)
			assert.Equal(t, Summary{Name: "Household", Groups: 2, Entries: 2, Attachments: 1}, sum)
		})
	}
}

func TestDocumentService_Load_StoreError(t *testing.T) {
	svc, store := newTestDocumentSvc(t, testConfig(3, crypto.StreamSalsa20))
	ctx := context.Background()

	store.EXPECT().Load(ctx, "in.xml").Return(nil, errors.New("disk gone"))

	doc, err := svc.Load(ctx)
	assert.Nil(t, doc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load payload")
	assert.Nil(t, svc.Document())
}

func TestDocumentService_Load_FormatError(t *testing.T) {
	svc, store := newTestDocumentSvc(t, testConfig(3, crypto.StreamSalsa20))
	ctx := context.Background()

	store.EXPECT().Load(ctx, "in.xml").Return([]byte("<Database/>"), nil)

	_, err := svc.Load(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, kdbx.ErrRootTagMismatch)

	var formatErr *kdbx.FormatError
	require.ErrorAs(t, err, &formatErr)
	assert.Equal(t, kdbx.KindMalformed, formatErr.Kind)
}

// ── Persist ──────────────────────────────────────────────────────────────────

// TestDocumentService_PersistRoundTrip: what Persist writes, Load reads back
// as an equal document.
func TestDocumentService_PersistRoundTrip(t *testing.T) {
	svc, store := newTestDocumentSvc(t, testConfig(3, crypto.StreamChaCha20))
	ctx := context.Background()

	store.EXPECT().Load(ctx, "in.xml").Return(samplePayload(t, crypto.StreamChaCha20, 3), nil)
	original, err := svc.Load(ctx)
	require.NoError(t, err)

	var written []byte
	store.EXPECT().Save(ctx, "out.xml", gomock.Any()).DoAndReturn(
		func(_ context.Context, _ string, data []byte) error {
			written = data
			return nil
		})
	require.NoError(t, svc.Persist(ctx))
	assert.NotContains(t, string(written), "hunter2")

	reloaded, err := kdbx.Parse(written, mustStream(t, crypto.StreamChaCha20), kdbx.ParseOptions{
		Params: kdbx.ParamsFor(3),
	})
	require.NoError(t, err)
	assert.True(t, original.Equal(reloaded))
}

// TestDocumentService_Version4 covers a payload without attachments, since
// version 4 keeps the attachment pool outside the XML.
func TestDocumentService_Version4(t *testing.T) {
	svc, store := newTestDocumentSvc(t, testConfig(4, crypto.StreamChaCha20))
	ctx := context.Background()

	doc := svc.Create("v4")
	e := doc.NewEntry(doc.RootGroup(), nil)
	e.Title().SetClearValue("Router")
	e.Password().SetClearValue("admin")
	doc.RootGroup().AddChild(e)

	var written []byte
	store.EXPECT().Save(ctx, "out.xml", gomock.Any()).DoAndReturn(
		func(_ context.Context, _ string, data []byte) error {
			written = data
			return nil
		})
	require.NoError(t, svc.Persist(ctx))

	store.EXPECT().Load(ctx, "in.xml").Return(written, nil)
	loaded, err := svc.Load(ctx)
	require.NoError(t, err)
	assert.True(t, doc.Equal(loaded))
}

// TestDocumentService_NullStreamKeepsSecrets: saving with the "none" stream
// writes protected values KeePass can read back.
func TestDocumentService_NullStreamKeepsSecrets(t *testing.T) {
	cfg := testConfig(3, crypto.StreamNone)
	cfg.Crypto.StreamKey = ""
	svc, store := newTestDocumentSvc(t, cfg)
	ctx := context.Background()

	doc := svc.Create("plain")
	e := doc.NewEntry(doc.RootGroup(), nil)
	e.Password().SetClearValue("hunter2")
	doc.RootGroup().AddChild(e)

	var written []byte
	store.EXPECT().Save(ctx, "out.xml", gomock.Any()).DoAndReturn(
		func(_ context.Context, _ string, data []byte) error {
			written = data
			return nil
		})
	require.NoError(t, svc.Persist(ctx))
	assert.Contains(t, string(written), "aHVudGVyMg==")

	store.EXPECT().Load(ctx, "in.xml").Return(written, nil)
	loaded, err := svc.Load(ctx)
	require.NoError(t, err)
	back := loaded.FindNode(e.UUID().Encoded()).(*kdbx.Entry)
	assert.Equal(t, "hunter2", back.Password().ClearValue())
}

func TestDocumentService_Version4_RefusesAttachments(t *testing.T) {
	svc, _ := newTestDocumentSvc(t, testConfig(4, crypto.StreamChaCha20))
	ctx := context.Background()

	doc := svc.Create("v4")
	e := doc.NewEntry(doc.RootGroup(), nil)
	e.AddAttachment("key.pem", kdbx.NewBinary([]byte("-----BEGIN"), false))
	doc.RootGroup().AddChild(e)

	err := svc.Persist(ctx)
	assert.ErrorIs(t, err, ErrHeaderBinaries)
}

func TestDocumentService_Persist_FallsBackToInput(t *testing.T) {
	cfg := testConfig(3, crypto.StreamSalsa20)
	cfg.Document.OutputPath = ""
	svc, store := newTestDocumentSvc(t, cfg)
	ctx := context.Background()

	svc.Create("fresh")
	store.EXPECT().Save(ctx, "in.xml", gomock.Any()).Return(nil)
	require.NoError(t, svc.Persist(ctx))
}

func TestDocumentService_Errors(t *testing.T) {
	svc, store := newTestDocumentSvc(t, testConfig(3, crypto.StreamSalsa20))
	ctx := context.Background()

	assert.ErrorIs(t, svc.Persist(ctx), ErrNoDocument)
	_, err := svc.Search("x")
	assert.ErrorIs(t, err, ErrNoDocument)
	_, err = svc.Summary()
	assert.ErrorIs(t, err, ErrNoDocument)

	svc.Create("fresh")
	assert.ErrorIs(t, svc.SaveTo(ctx, ""), ErrNoTarget)

	store.EXPECT().Save(ctx, "out.xml", gomock.Any()).Return(errors.New("read-only fs"))
	err = svc.Persist(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "save payload")
}

func TestNewDocumentService_BadCrypto(t *testing.T) {
	cfg := testConfig(3, crypto.StreamSalsa20)
	cfg.Crypto.StreamKey = "not hex"
	_, err := NewDocumentService(nil, cfg, logger.Nop())
	assert.Error(t, err)

	cfg = testConfig(3, crypto.StreamSalsa20)
	cfg.Crypto.StreamAlgorithm = "rot13"
	_, err = NewDocumentService(nil, cfg, logger.Nop())
	assert.ErrorIs(t, err, crypto.ErrUnsupportedAlgorithm)
}

// ── Editing through the service ──────────────────────────────────────────────

// TestDocumentService_EditorCommit: an edit session uses the service as its
// persister, and a failed save leaves the loaded tree untouched.
func TestDocumentService_EditorCommit(t *testing.T) {
	svc, store := newTestDocumentSvc(t, testConfig(3, crypto.StreamSalsa20))
	ctx := context.Background()

	store.EXPECT().Load(ctx, "in.xml").Return(samplePayload(t, crypto.StreamSalsa20, 3), nil)
	_, err := svc.Load(ctx)
	require.NoError(t, err)

	found, err := svc.Search("Bank")
	require.NoError(t, err)
	require.Len(t, found, 1)
	bank := found[0].(*kdbx.Entry)
	before := bank.Clone(true)

	session := editor.NewEntrySession(bank, false, svc, logger.Nop())
	session.BeginEdit()
	session.Working().Password().SetClearValue("pin 1234")

	store.EXPECT().Save(ctx, "out.xml", gomock.Any()).Return(errors.New("quota"))
	err = session.Commit(ctx)
	require.ErrorIs(t, err, editor.ErrPersistFailed)
	assert.True(t, bank.Equal(before))

	session.BeginEdit()
	session.Working().Password().SetClearValue("pin 1234")
	store.EXPECT().Save(ctx, "out.xml", gomock.Any()).Return(nil)
	require.NoError(t, session.Commit(ctx))
	assert.Equal(t, "pin 1234", bank.Password().ClearValue())
	assert.Equal(t, 1, bank.History().Len())
}

func mustStream(t *testing.T, alg crypto.StreamAlgorithm) crypto.RandomSource {
	t.Helper()
	rng, err := crypto.NewInnerStream(alg, testStreamKey)
	require.NoError(t, err)
	return rng
}
