//go:build integration

package events_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/twmb/franz-go/pkg/kgo"

	"hemolink/internal/platform/events"
	"hemolink/pkg/domain"
	"hemolink/pkg/testutil/containers"
)

type KafkaPublisherSuite struct {
	suite.Suite
	redpanda *containers.RedpandaContainer
}

func TestKafkaPublisherSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(KafkaPublisherSuite))
}

func (s *KafkaPublisherSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.redpanda = mgr.GetRedpanda(s.T())
}

func (s *KafkaPublisherSuite) consume(topic string, want int) []*kgo.Record {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(s.redpanda.Broker),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	s.Require().NoError(err)
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var records []*kgo.Record
	for len(records) < want {
		fetches := client.PollFetches(ctx)
		s.Require().NoError(ctx.Err(), "timed out waiting for records")
		fetches.EachError(func(_ string, _ int32, err error) {
			s.Require().NoError(err)
		})
		records = append(records, fetches.Records()...)
	}
	return records
}

func (s *KafkaPublisherSuite) TestPublishRoundtrip() {
	ctx := context.Background()
	topic := "hemolink.request-events.roundtrip"

	pub, err := events.NewKafkaPublisher(ctx, []string{s.redpanda.Broker}, topic, nil)
	s.Require().NoError(err)
	s.Require().NotNil(pub)

	requestID := domain.NewRequestID()
	event := events.Event{
		Kind:       events.KindRequestCreated,
		RequestID:  requestID,
		BloodGroup: domain.BloodGroup("O-"),
		Urgency:    "critical",
	}
	s.Require().NoError(pub.Publish(ctx, event))
	s.Require().NoError(pub.Close(ctx))

	records := s.consume(topic, 1)
	s.Require().Len(records, 1)
	s.Equal(requestID.String(), string(records[0].Key))

	var got events.Event
	s.Require().NoError(json.Unmarshal(records[0].Value, &got))
	s.Equal(events.KindRequestCreated, got.Kind)
	s.Equal(requestID, got.RequestID)
	s.Equal(domain.BloodGroup("O-"), got.BloodGroup)
	s.False(got.Timestamp.IsZero(), "publisher must stamp events")
}

// TestOrderingPerRequest verifies that events for one request land on one
// partition in emit order, since records are keyed by request id.
func (s *KafkaPublisherSuite) TestOrderingPerRequest() {
	ctx := context.Background()
	topic := "hemolink.request-events.ordering"

	pub, err := events.NewKafkaPublisher(ctx, []string{s.redpanda.Broker}, topic, nil)
	s.Require().NoError(err)

	requestID := domain.NewRequestID()
	kinds := []events.Kind{
		events.KindRequestCreated,
		events.KindNotificationsDispatched,
		events.KindDonorResponded,
		events.KindContactShared,
		events.KindStatusChanged,
	}
	for _, k := range kinds {
		s.Require().NoError(pub.Publish(ctx, events.Event{Kind: k, RequestID: requestID}))
	}
	s.Require().NoError(pub.Close(ctx))

	records := s.consume(topic, len(kinds))
	s.Require().Len(records, len(kinds))

	partition := records[0].Partition
	var gotKinds []events.Kind
	for _, r := range records {
		s.Equal(partition, r.Partition, "same key must map to one partition")
		var e events.Event
		s.Require().NoError(json.Unmarshal(r.Value, &e))
		gotKinds = append(gotKinds, e.Kind)
	}
	s.Equal(kinds, gotKinds)
}

func (s *KafkaPublisherSuite) TestNilWhenUnconfigured() {
	pub, err := events.NewKafkaPublisher(context.Background(), nil, "unused", nil)
	s.Require().NoError(err)
	s.Nil(pub)
}
