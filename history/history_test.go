// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2026 Datadog, Inc.

package history_test

import (
	"context"
	"fmt"
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap/zaptest"

	"github.com/DataDog/chaos-seal/history"
)

func record(i int) history.Record {
	return history.Record{
		RunID:     "run",
		Scenario:  fmt.Sprintf("scenario-%d", i),
		Success:   i%2 == 0,
		StartedAt: time.Date(2026, time.October, 14, 12, i, 0, 0, time.UTC),
		Duration:  time.Duration(i) * time.Second,
	}
}

var _ = Describe("History", func() {
	ctx := context.Background()

	Describe("MemoryStore", func() {
		It("lists the most recent records first", func() {
			store := history.NewMemoryStore(10)

			for i := 0; i < 3; i++ {
				Expect(store.Save(ctx, record(i))).To(Succeed())
			}

			records, err := store.List(ctx, 2)
			Expect(err).ToNot(HaveOccurred())
			Expect(records).To(Equal([]history.Record{record(2), record(1)}))
		})

		It("drops the oldest records beyond its capacity", func() {
			store := history.NewMemoryStore(3)

			for i := 0; i < 5; i++ {
				Expect(store.Save(ctx, record(i))).To(Succeed())
			}

			records, err := store.List(ctx, 0)
			Expect(err).ToNot(HaveOccurred())
			Expect(records).To(Equal([]history.Record{record(4), record(3), record(2)}))
		})
	})

	It("defaults to the in-memory store", func() {
		store, err := history.GetStore(ctx, "", zaptest.NewLogger(GinkgoT()).Sugar())
		Expect(err).ToNot(HaveOccurred())
		Expect(store).To(BeAssignableToTypeOf(&history.MemoryStore{}))
	})

	Describe("PostgresStore", func() {
		var store *history.PostgresStore

		BeforeEach(func() {
			dsn := os.Getenv("TEST_DATABASE_URL")
			if dsn == "" {
				Skip("TEST_DATABASE_URL is not set")
			}

			var err error

			store, err = history.NewPostgresStore(ctx, dsn)
			if err != nil {
				Skip(fmt.Sprintf("postgres not available: %v", err))
			}

			DeferCleanup(store.Close)
		})

		It("saves and lists records", func() {
			r := record(59)
			r.RunID = fmt.Sprintf("test-%d", time.Now().UnixNano())
			r.Error = "step failed"

			Expect(store.Save(ctx, r)).To(Succeed())

			records, err := store.List(ctx, 1)
			Expect(err).ToNot(HaveOccurred())
			Expect(records).To(HaveLen(1))
			Expect(records[0].Scenario).To(Equal(r.Scenario))
			Expect(records[0].Error).To(Equal("step failed"))
			Expect(records[0].Duration).To(Equal(r.Duration))
		})
	})
})
