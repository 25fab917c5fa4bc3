package repository

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ralfiz/bizdesk/internal/model"
)

func TestFilter_NumbersParameters(t *testing.T) {
	var fl filter
	assert.Empty(t, fl.where())

	fl.add("(name ILIKE $%[1]d OR email ILIKE $%[1]d)", "%acme%")
	fl.add("priority = $%d", "high")

	assert.Equal(t, " WHERE (name ILIKE $1 OR email ILIKE $1) AND priority = $2", fl.where())
	assert.Equal(t, []any{"%acme%", "high"}, fl.args)
}

func TestDocumentFilter(t *testing.T) {
	clientID := uuid.New()

	fl := documentFilter(model.DocumentFilter{Search: "50%", Status: model.StatusSent, ClientID: clientID}, "invoice_number")

	require.Len(t, fl.args, 3)
	assert.Equal(t, `%50\%%`, fl.args[0])
	assert.Equal(t, "sent", fl.args[1])
	assert.Equal(t, clientID, fl.args[2])
	assert.Contains(t, fl.where(), "(invoice_number ILIKE $1 OR title ILIKE $1 OR client_id IN")
	assert.Contains(t, fl.where(), "AND status = $2 AND client_id = $3")

	empty := documentFilter(model.DocumentFilter{}, "quote_number")
	assert.Empty(t, empty.where())
}

func TestCursorArgs(t *testing.T) {
	date, id := cursorArgs(nil)
	assert.Nil(t, date)
	assert.Equal(t, uuid.Nil, id)

	c := &Cursor{Date: time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC), ID: uuid.New()}
	date, id = cursorArgs(c)
	require.NotNil(t, date)
	assert.True(t, date.Equal(c.Date))
	assert.Equal(t, c.ID, id)
}
