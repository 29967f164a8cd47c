package bot

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ftomza/go-adsales-bot/domain"
	"github.com/ftomza/go-adsales-bot/pkg/commission"
)

type rawSenderMock struct {
	mock.Mock
}

func (m *rawSenderMock) Raw(method string, payload interface{}) ([]byte, error) {
	args := m.Called(method, payload)
	return nil, args.Error(0)
}

func TestParseTarget(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    Target
		wantErr bool
	}{
		{name: "chat", in: "-1001234567890", want: Target{ChatID: "-1001234567890"}},
		{name: "chat with topic", in: " -1001234567890#15 ", want: Target{ChatID: "-1001234567890", TopicID: 15}},
		{name: "channel name", in: "@sales_feed", want: Target{ChatID: "@sales_feed"}},
		{name: "empty", in: "", wantErr: true},
		{name: "topic only", in: "#15", wantErr: true},
		{name: "bad topic", in: "-100#abc", wantErr: true},
		{name: "zero topic", in: "-100#0", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTarget(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrBadTarget)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTarget_String(t *testing.T) {
	assert.Equal(t, "-100", Target{ChatID: "-100"}.String())
	assert.Equal(t, "-100#7", Target{ChatID: "-100", TopicID: 7}.String())
}

func testReceipt() Receipt {
	return Receipt{
		Sale: domain.Sale{
			Manager:  "@maxim",
			Date:     "12.12.2026",
			Time:     "11:11",
			Amount:   decimal.NewFromInt(1489),
			Currency: domain.CurrencyUSDT,
			Format:   "1/24",
			Channel:  "BusinessChannel",
		},
		Submitter:  "anna",
		Commission: commission.Result{Rate: decimal.Zero},
	}
}

func TestTelegramNotifier_Notify(t *testing.T) {
	t.Run("chat", func(t *testing.T) {
		api := &rawSenderMock{}
		api.On("Raw", "sendMessage", mock.MatchedBy(func(p map[string]interface{}) bool {
			_, hasTopic := p["message_thread_id"]
			return p["chat_id"] == "-100" && p["parse_mode"] == "HTML" && !hasTopic
		})).Return(nil).Once()

		n := NewTelegramNotifier(api, Target{ChatID: "-100"})
		require.NoError(t, n.Notify(context.Background(), testReceipt()))
		api.AssertExpectations(t)
	})

	t.Run("topic", func(t *testing.T) {
		api := &rawSenderMock{}
		api.On("Raw", "sendMessage", mock.MatchedBy(func(p map[string]interface{}) bool {
			return p["chat_id"] == "-100" && p["message_thread_id"] == 7
		})).Return(nil).Once()

		n := NewTelegramNotifier(api, Target{ChatID: "-100", TopicID: 7})
		require.NoError(t, n.Notify(context.Background(), testReceipt()))
		api.AssertExpectations(t)
	})

	t.Run("error", func(t *testing.T) {
		api := &rawSenderMock{}
		sendErr := errors.New("chat not found")
		api.On("Raw", "sendMessage", mock.Anything).Return(sendErr).Once()

		n := NewTelegramNotifier(api, Target{ChatID: "-100", TopicID: 7})
		err := n.Notify(context.Background(), testReceipt())
		assert.ErrorIs(t, err, sendErr)
		assert.Contains(t, err.Error(), "-100#7")
	})
}
