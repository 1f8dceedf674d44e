package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quads-bot/internal/checker"
	"quads-bot/internal/model"
	"quads-bot/internal/service"
	"quads-bot/internal/timezone"
)

func privateMessageContext(text string, args ...string) *fakeContext {
	msg := groupMessage(1, text)
	msg.Chat = privateChat
	return &fakeContext{msg: msg, args: args}
}

func TestHandleSetAdmin(t *testing.T) {
	admin := &fakeAdmin{}
	h := NewAdminHandler(admin, &fakePreviewer{})
	c := privateMessageContext("/setadmin")

	require.NoError(t, h.HandleSetAdmin(c))
	assert.Equal(t, int64(42), admin.admin)
	assert.Equal(t, []string{"Set as Admin"}, c.replies)
}

func TestHandleStats(t *testing.T) {
	admin := &fakeAdmin{stats: `{"users":{}}`}
	preview := &fakePreviewer{digits: [2]string{"20220301222200", "20220301102200"}}
	h := NewAdminHandler(admin, preview)
	c := privateMessageContext("/stats")

	require.NoError(t, h.HandleStats(c))
	require.Len(t, c.replies, 1)
	assert.Equal(t, "Date strings (Europe/London): [20220301222200 20220301102200]\nStats: {\"users\":{}}", c.replies[0])
}

func TestHandleClear(t *testing.T) {
	h := NewAdminHandler(&fakeAdmin{cleared: 3}, &fakePreviewer{})
	c := privateMessageContext("/clear")

	require.NoError(t, h.HandleClear(c))
	assert.Equal(t, []string{"Cleared 3 users"}, c.replies)
}

func TestHandleCheck(t *testing.T) {
	preview := &fakePreviewer{preview: &service.Preview{
		Timezone: "Europe/London",
		Result: checker.Result{
			Verdict: model.VerdictChecked,
			Key:     &checker.Key{Rule: "quads", Prefix: "202201222222", Index: 0},
		},
	}}
	h := NewAdminHandler(&fakeAdmin{}, preview)
	c := privateMessageContext("/check 2022-01-22T22:22:01 Europe/London quads", "2022-01-22T22:22:01", "Europe/London", "quads")

	require.NoError(t, h.HandleCheck(c))
	require.Len(t, preview.calls, 1)
	assert.Equal(t, previewCall{"2022-01-22T22:22:01", "Europe/London", "/check 2022-01-22T22:22:01 Europe/London quads"}, preview.calls[0])
	assert.Equal(t, []string{"TZ: Europe/London\nState: CHECKED\nCheck Info: quads:202201222222:0"}, c.replies)
}

func TestHandleCheck_NoKey(t *testing.T) {
	preview := &fakePreviewer{preview: &service.Preview{
		Timezone: "Asia/Tokyo",
		Result:   checker.Result{Verdict: model.VerdictDelete},
	}}
	h := NewAdminHandler(&fakeAdmin{}, preview)
	c := privateMessageContext("/check")

	require.NoError(t, h.HandleCheck(c))
	assert.Equal(t, previewCall{"", "", "/check"}, preview.calls[0])
	assert.Equal(t, []string{"TZ: Asia/Tokyo\nState: DELETE\nCheck Info: None"}, c.replies)
}

func TestHandleCheck_Errors(t *testing.T) {
	t.Run("bad date", func(t *testing.T) {
		preview := &fakePreviewer{err: &checker.ParseError{Input: "yesterday", Layout: checker.DateInputLayout}}
		h := NewAdminHandler(&fakeAdmin{}, preview)
		c := privateMessageContext("/check yesterday", "yesterday")

		require.NoError(t, h.HandleCheck(c))
		require.Len(t, c.replies, 1)
		assert.Equal(t, "Failed to parse date `yesterday`\nMust be of format `2006-01-02T15:04:05`", c.replies[0])
	})

	t.Run("bad zone", func(t *testing.T) {
		preview := &fakePreviewer{err: timezone.ErrInvalidTimezone}
		h := NewAdminHandler(&fakeAdmin{}, preview)
		c := privateMessageContext("/check 2022-01-22T22:22:01 Mars/Base", "2022-01-22T22:22:01", "Mars/Base")

		require.NoError(t, h.HandleCheck(c))
		assert.Equal(t, []string{"Unknown timezone `Mars/Base`"}, c.replies)
	})
}
