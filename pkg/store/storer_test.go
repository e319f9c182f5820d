package store_test

import (
	"context"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/lecternlabs/lectern/pkg/store"
	"github.com/lecternlabs/lectern/pkg/summary"
)

// The driver contract is exercised against both implementations.
func describeStorer(name string, open func() store.Storer) bool {
	return Describe(name, func() {
		var (
			storer store.Storer
			ctx    context.Context
		)

		BeforeEach(func() {
			ctx = context.Background()
			storer = open()
		})

		AfterEach(func() {
			if storer != nil {
				storer.Close()
			}
		})

		Describe("Put and Get", func() {
			It("stores and retrieves a transcript record", func() {
				rec := store.NewRecord(store.KindTranscript, "lecture 1", "full transcript text", nil)

				Expect(storer.Put(ctx, rec)).To(Succeed())

				retrieved, err := storer.Get(ctx, rec.ID)
				Expect(err).NotTo(HaveOccurred())
				Expect(retrieved.ID).To(Equal(rec.ID))
				Expect(retrieved.Kind).To(Equal(store.KindTranscript))
				Expect(retrieved.Title).To(Equal("lecture 1"))
				Expect(retrieved.Text).To(Equal("full transcript text"))
				Expect(retrieved.Levels).To(BeNil())
			})

			It("stores and retrieves a summary record with a level snapshot", func() {
				snap := summary.Snapshot{"a", "b", "c", "d", "e"}
				rec := store.NewRecord(store.KindSummary, "", "source text", &snap)

				Expect(storer.Put(ctx, rec)).To(Succeed())

				retrieved, err := storer.Get(ctx, rec.ID)
				Expect(err).NotTo(HaveOccurred())
				Expect(retrieved.Levels).NotTo(BeNil())
				Expect(*retrieved.Levels).To(Equal(snap))
			})

			It("returns ErrNotFound for a non-existent id", func() {
				_, err := storer.Get(ctx, "nonexistent")
				Expect(err).To(BeAssignableToTypeOf(store.ErrNotFound{}))
			})

			It("is idempotent for duplicate puts", func() {
				rec := store.NewRecord(store.KindTranscript, "", "same text", nil)

				Expect(storer.Put(ctx, rec)).To(Succeed())
				Expect(storer.Put(ctx, rec)).To(Succeed())

				records, err := storer.List(ctx)
				Expect(err).NotTo(HaveOccurred())
				Expect(records).To(HaveLen(1))
			})

			It("rejects nil records", func() {
				Expect(storer.Put(ctx, nil)).NotTo(Succeed())
			})
		})

		Describe("Has", func() {
			It("reports existence", func() {
				rec := store.NewRecord(store.KindTranscript, "", "text", nil)
				Expect(storer.Put(ctx, rec)).To(Succeed())

				Expect(storer.Has(ctx, rec.ID)).To(BeTrue())
				Expect(storer.Has(ctx, "missing")).To(BeFalse())
			})
		})

		Describe("Delete", func() {
			It("removes a record", func() {
				rec := store.NewRecord(store.KindTranscript, "", "text", nil)
				Expect(storer.Put(ctx, rec)).To(Succeed())

				Expect(storer.Delete(ctx, rec.ID)).To(Succeed())
				Expect(storer.Has(ctx, rec.ID)).To(BeFalse())
			})

			It("returns ErrNotFound for an absent id", func() {
				err := storer.Delete(ctx, "missing")
				Expect(err).To(BeAssignableToTypeOf(store.ErrNotFound{}))
			})
		})

		Describe("List", func() {
			It("returns all records", func() {
				a := store.NewRecord(store.KindTranscript, "", "first", nil)
				b := store.NewRecord(store.KindSummary, "", "second", nil)
				Expect(storer.Put(ctx, a)).To(Succeed())
				Expect(storer.Put(ctx, b)).To(Succeed())

				records, err := storer.List(ctx)
				Expect(err).NotTo(HaveOccurred())
				Expect(records).To(HaveLen(2))
			})
		})
	})
}

var _ = describeStorer("MemoryStorer", func() store.Storer {
	return store.NewMemoryStorer()
})

var _ = describeStorer("SQLiteStorer", func() store.Storer {
	storer, err := store.NewSQLiteStorer(":memory:")
	Expect(err).NotTo(HaveOccurred())
	return storer
})

var _ = Describe("SQLiteStorer file database", func() {
	It("creates the database file on disk", func() {
		tmpDir := GinkgoT().TempDir()
		dbPath := filepath.Join(tmpDir, "lectern.db")

		storer, err := store.NewSQLiteStorer(dbPath)
		Expect(err).NotTo(HaveOccurred())
		defer storer.Close()

		_, err = os.Stat(dbPath)
		Expect(err).NotTo(HaveOccurred())
	})

	It("persists records across reopens", func() {
		tmpDir := GinkgoT().TempDir()
		dbPath := filepath.Join(tmpDir, "lectern.db")
		ctx := context.Background()

		first, err := store.NewSQLiteStorer(dbPath)
		Expect(err).NotTo(HaveOccurred())
		rec := store.NewRecord(store.KindTranscript, "persisted", "text", nil)
		Expect(first.Put(ctx, rec)).To(Succeed())
		first.Close()

		second, err := store.NewSQLiteStorer(dbPath)
		Expect(err).NotTo(HaveOccurred())
		defer second.Close()

		retrieved, err := second.Get(ctx, rec.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(retrieved.Title).To(Equal("persisted"))
	})
})

var _ = Describe("NewRecord", func() {
	It("content-addresses by kind and text", func() {
		a := store.NewRecord(store.KindTranscript, "title A", "same text", nil)
		b := store.NewRecord(store.KindTranscript, "title B", "same text", nil)
		Expect(a.ID).To(Equal(b.ID))
	})

	It("produces different ids for different kinds", func() {
		a := store.NewRecord(store.KindTranscript, "", "same text", nil)
		b := store.NewRecord(store.KindSummary, "", "same text", nil)
		Expect(a.ID).NotTo(Equal(b.ID))
	})

	It("produces a valid SHA-256 hex id", func() {
		rec := store.NewRecord(store.KindTranscript, "", "text", nil)
		Expect(rec.ID).To(HaveLen(64))
		Expect(rec.ID).To(MatchRegexp("^[a-f0-9]{64}$"))
	})
})
