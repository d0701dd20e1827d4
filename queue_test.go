package oracleworker

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

func newTestQueue(t *testing.T) (*RedisJobQueue, *redis.Client) {
	t.Helper()
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisJobQueue(client, "oracle:jobs", time.Second), client
}

func TestRedisQueue_DequeueFIFO(t *testing.T) {
	ctx := context.Background()
	q, client := newTestQueue(t)

	for _, msg := range []string{"first", "second"} {
		payload, _ := json.Marshal(Job{UserID: "u1", Message: msg})
		if err := client.RPush(ctx, "oracle:jobs", payload).Err(); err != nil {
			t.Fatal(err)
		}
	}

	job, err := q.Dequeue(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if job == nil || job.Message != "first" {
		t.Fatalf("got %+v", job)
	}
	job, err = q.Dequeue(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if job.Message != "second" {
		t.Fatalf("got %+v", job)
	}
}

func TestRedisQueue_MalformedPayload(t *testing.T) {
	ctx := context.Background()
	q, client := newTestQueue(t)

	if err := client.RPush(ctx, "oracle:jobs", "not json at all").Err(); err != nil {
		t.Fatal(err)
	}
	_, err := q.Dequeue(ctx)
	if !errors.Is(err, ErrMalformedJob) {
		t.Fatalf("got %v", err)
	}
}

func TestRedisQueue_PopConsumesOnce(t *testing.T) {
	ctx := context.Background()
	q, client := newTestQueue(t)

	payload, _ := json.Marshal(Job{UserID: "u1", Message: "only once"})
	if err := client.RPush(ctx, "oracle:jobs", payload).Err(); err != nil {
		t.Fatal(err)
	}
	if _, err := q.Dequeue(ctx); err != nil {
		t.Fatal(err)
	}
	if n, _ := client.LLen(ctx, "oracle:jobs").Result(); n != 0 {
		t.Fatalf("queue still holds %d entries", n)
	}
}

func TestRedisNotifier_PublishesReadyHint(t *testing.T) {
	ctx := context.Background()
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	defer client.Close()

	hash := HashUserID("u1")
	sub := client.Subscribe(ctx, readyChannelPrefix+hash)
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		t.Fatal(err)
	}

	notifier := NewRedisReadyNotifier(client)
	notifier.NotifyReady(ctx, hash, RoleHoroscope)

	recvCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	msg, err := sub.ReceiveMessage(recvCtx)
	if err != nil {
		t.Fatal(err)
	}

	var payload readyPayload
	if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
		t.Fatal(err)
	}
	if payload.MessageType != RoleHoroscope || payload.ID == "" {
		t.Fatalf("payload %+v", payload)
	}
}
