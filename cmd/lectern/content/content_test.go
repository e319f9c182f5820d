package contentcmder

import (
	"bytes"
	"context"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/lecternlabs/lectern/pkg/store"
	"github.com/lecternlabs/lectern/pkg/summary"
)

var _ = Describe("Content Command", func() {
	var (
		ctx    context.Context
		tmpDir string
		dbPath string
	)

	BeforeEach(func() {
		ctx = context.Background()
		var err error
		tmpDir, err = os.MkdirTemp("", "lectern-content-test-*")
		Expect(err).NotTo(HaveOccurred())
		dbPath = filepath.Join(tmpDir, "lectern.db")
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	seed := func(records ...*store.Record) {
		storer, err := store.NewSQLiteStorer(dbPath)
		Expect(err).NotTo(HaveOccurred())
		defer storer.Close()
		for _, rec := range records {
			Expect(storer.Put(ctx, rec)).To(Succeed())
		}
	}

	run := func(args ...string) (string, error) {
		cmd := NewContentCmd()
		var out bytes.Buffer
		cmd.SetOut(&out)
		cmd.SetErr(&out)
		cmd.SetArgs(append(args, "--sqlite", dbPath))
		err := cmd.ExecuteContext(ctx)
		return out.String(), err
	}

	It("lists stored records", func() {
		seed(
			store.NewRecord(store.KindTranscript, "biology 101", "the mitochondria is the powerhouse of the cell", nil),
			store.NewRecord(store.KindSummary, "physics", "objects in motion stay in motion", &summary.Snapshot{}),
		)

		out, err := run("list")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("biology 101"))
		Expect(out).To(ContainSubstring("physics"))
		Expect(out).To(ContainSubstring("transcript"))
		Expect(out).To(ContainSubstring("summary"))
	})

	It("reports an empty database", func() {
		seed()
		out, err := run("list")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("No stored content"))
	})

	It("shows a record's text by id prefix", func() {
		rec := store.NewRecord(store.KindTranscript, "", "full transcript text here", nil)
		seed(rec)

		out, err := run("show", rec.ID[:8])
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("full transcript text here"))
	})

	It("shows a single summary level", func() {
		snap := summary.Snapshot{
			"for beginners", "for novices", "for intermediates", "for advanced", "for experts",
		}
		rec := store.NewRecord(store.KindSummary, "lecture", "source text", &snap)
		seed(rec)

		out, err := run("show", rec.ID, "--level", "3")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal("for advanced\n"))
	})

	It("rejects an out-of-range level", func() {
		rec := store.NewRecord(store.KindSummary, "", "source", &summary.Snapshot{})
		seed(rec)

		_, err := run("show", rec.ID, "--level", "7")
		Expect(err).To(HaveOccurred())
	})

	It("removes a record", func() {
		rec := store.NewRecord(store.KindTranscript, "", "to be removed", nil)
		seed(rec)

		out, err := run("rm", rec.ID[:8])
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("Removed"))

		storer, err := store.NewSQLiteStorer(dbPath)
		Expect(err).NotTo(HaveOccurred())
		defer storer.Close()
		has, err := storer.Has(ctx, rec.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(has).To(BeFalse())
	})

	It("fails on an unknown id", func() {
		seed()
		_, err := run("show", "ffffffff")
		Expect(err).To(HaveOccurred())
	})
})
