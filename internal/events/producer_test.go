package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/IBM/sarama/mocks"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banking/sanctions-screening/internal/domain"
)

func TestPublishAlert(t *testing.T) {
	sp := mocks.NewSyncProducer(t, nil)
	defer sp.Close()

	alert := &domain.ScreeningAlert{
		AlertID:        uuid.New(),
		RecordID:       uuid.New(),
		ExternalID:     "C-7",
		Recommendation: domain.RecommendationReject,
	}

	sp.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		var got domain.ScreeningAlert
		if err := json.Unmarshal(val, &got); err != nil {
			return err
		}
		if got.AlertID != alert.AlertID {
			return fmt.Errorf("unexpected alert %s", got.AlertID)
		}
		return nil
	})

	p := NewAlertProducerWith(sp, "banking.compliance.alerts")
	require.NoError(t, p.PublishAlert(context.Background(), alert))
}

func TestPublishAlertFailure(t *testing.T) {
	sp := mocks.NewSyncProducer(t, nil)
	defer sp.Close()

	sp.ExpectSendMessageAndFail(errors.New("broker unavailable"))

	p := NewAlertProducerWith(sp, "banking.compliance.alerts")
	err := p.PublishAlert(context.Background(), &domain.ScreeningAlert{AlertID: uuid.New(), RecordID: uuid.New()})
	assert.ErrorContains(t, err, "broker unavailable")
}
