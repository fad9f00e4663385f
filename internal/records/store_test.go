package records

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casebridge/intake-platform/internal/intake"
)

func TestNewConversationStoreNilDB(t *testing.T) {
	store := NewConversationStore(nil)
	assert.Nil(t, store)

	// Nil store is safe to call.
	require.NoError(t, store.RecordInbound(context.Background(), intake.InboundMessage{SenderID: "1"}))
	require.NoError(t, store.RecordOutbound(context.Background(), "1", "hi"))
	require.NoError(t, store.MarkSubmitted(context.Background(), "1"))
}

func TestEnsureConversationCreatesNew(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewConversationStore(db)

	mock.ExpectQuery("SELECT id FROM conversations").
		WithArgs("whatsapp:15551234567").
		WillReturnError(sqlmock.ErrCancelled)

	_, err = store.EnsureConversation(context.Background(), "15551234567")
	assert.Error(t, err)
}

func TestRecordInboundInsertsMessageAndCounters(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	store := NewConversationStore(db)
	existing := "11111111-1111-1111-1111-111111111111"

	mock.ExpectQuery("SELECT id FROM conversations").
		WithArgs("whatsapp:15551234567").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(existing))
	mock.ExpectExec("UPDATE conversations SET updated_at").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO conversation_messages").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("UPDATE conversations SET").
		WillReturnResult(sqlmock.NewResult(0, 1))

	msg := intake.InboundMessage{
		SenderID:  "15551234567",
		MessageID: "wamid.abc",
		Kind:      "text",
		Text:      "hello",
		Timestamp: time.Now(),
	}
	require.NoError(t, store.RecordInbound(context.Background(), msg))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordInboundDuplicateSkipsCounters(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	store := NewConversationStore(db)
	existing := "11111111-1111-1111-1111-111111111111"

	mock.ExpectQuery("SELECT id FROM conversations").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(existing))
	mock.ExpectExec("UPDATE conversations SET updated_at").
		WillReturnResult(sqlmock.NewResult(0, 1))
	// ON CONFLICT DO NOTHING swallowed the insert.
	mock.ExpectExec("INSERT INTO conversation_messages").
		WillReturnResult(sqlmock.NewResult(0, 0))

	msg := intake.InboundMessage{SenderID: "15551234567", MessageID: "wamid.abc", Text: "hello"}
	require.NoError(t, store.RecordInbound(context.Background(), msg))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordOutbound(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	store := NewConversationStore(db)
	existing := "11111111-1111-1111-1111-111111111111"

	mock.ExpectQuery("SELECT id FROM conversations").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(existing))
	mock.ExpectExec("UPDATE conversations SET updated_at").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO conversation_messages").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("UPDATE conversations SET").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.RecordOutbound(context.Background(), "15551234567", "Thanks, noted."))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkSubmitted(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	store := NewConversationStore(db)

	mock.ExpectExec("UPDATE conversations SET status = 'submitted'").
		WithArgs(sqlmock.AnyArg(), "whatsapp:15551234567").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.MarkSubmitted(context.Background(), "15551234567"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetConversationMissing(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	store := NewConversationStore(db)

	mock.ExpectQuery("SELECT id, conversation_id").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	conv, err := store.GetConversation(context.Background(), "15550000000")
	require.NoError(t, err)
	assert.Nil(t, conv)
}

func TestGetMessages(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	store := NewConversationStore(db)
	now := time.Now()

	rows := sqlmock.NewRows([]string{"id", "conversation_id", "role", "content", "provider_message_id", "created_at"}).
		AddRow("11111111-1111-1111-1111-111111111111", "whatsapp:1555", "user", "hi", "wamid.1", now).
		AddRow("22222222-2222-2222-2222-222222222222", "whatsapp:1555", "assistant", "hello", "", now)

	mock.ExpectQuery("SELECT id, conversation_id, role").
		WillReturnRows(rows)

	msgs, err := store.GetMessages(context.Background(), "1555", 0)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "user", msgs[0].Role)
	assert.Equal(t, "wamid.1", msgs[0].ProviderMessageID)
	assert.Equal(t, "assistant", msgs[1].Role)
}
