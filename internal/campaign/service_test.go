package campaign

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/frahmantamala/campaign-management/internal"
	"github.com/frahmantamala/campaign-management/internal/core/events"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type memoryRepository struct {
	mu         sync.Mutex
	records    map[int64]*Campaign
	nextID     int64
	shouldFail bool
	failCreate int
	creates    int
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{records: map[int64]*Campaign{}, nextID: 1}
}

func clone(c *Campaign) *Campaign {
	cp := *c
	cp.Data = c.Data.Clone()
	cp.StatusHistory = append([]StatusChange{}, c.StatusHistory...)
	return &cp
}

func (m *memoryRepository) Create(ctx context.Context, c *Campaign) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creates++
	if m.shouldFail || (m.failCreate > 0 && m.creates == m.failCreate) {
		return errors.New("database error")
	}
	c.ID = m.nextID
	m.nextID++
	m.records[c.ID] = clone(c)
	return nil
}

func (m *memoryRepository) GetByID(ctx context.Context, id int64) (*Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.shouldFail {
		return nil, errors.New("database error")
	}
	c, ok := m.records[id]
	if !ok {
		return nil, internal.ErrCampaignNotFound
	}
	return clone(c), nil
}

func (m *memoryRepository) sorted(filter func(*Campaign) bool) []*Campaign {
	var out []*Campaign
	for _, c := range m.records {
		if filter(c) {
			out = append(out, clone(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *memoryRepository) GetAll(ctx context.Context) ([]*Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.shouldFail {
		return nil, errors.New("database error")
	}
	return m.sorted(func(*Campaign) bool { return true }), nil
}

func (m *memoryRepository) GetByUserID(ctx context.Context, userID int64) ([]*Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sorted(func(c *Campaign) bool { return c.UserID == userID }), nil
}

func (m *memoryRepository) Update(ctx context.Context, c *Campaign) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.shouldFail {
		return errors.New("database error")
	}
	if _, ok := m.records[c.ID]; !ok {
		return internal.ErrCampaignNotFound
	}
	m.records[c.ID] = clone(c)
	return nil
}

func (m *memoryRepository) Delete(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[id]; !ok {
		return internal.ErrCampaignNotFound
	}
	delete(m.records, id)
	return nil
}

type staticResolver struct {
	owners map[string]int64
	calls  int
}

func (r *staticResolver) ResolveByPANs(ctx context.Context, pans []string) (map[string]int64, error) {
	r.calls++
	out := map[string]int64{}
	for _, p := range pans {
		if id, ok := r.owners[p]; ok {
			out[p] = id
		}
	}
	return out, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(ctx context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.EventType()
	}
	return out
}

const csvHeader = "billName,description,startDate,endDate,panNumber,place,campaignName,amount\n"

var _ = Describe("Campaign Service", func() {
	var (
		repo      *memoryRepository
		resolver  *staticResolver
		publisher *recordingPublisher
		service   *Service
		ctx       context.Context
		opts      Options
		lg        *slog.Logger
	)

	build := func() {
		service = NewService(repo, resolver, publisher, lg, opts)
	}

	upload := func(body string) *UploadResult {
		res, err := service.Upload(ctx, 99, strings.NewReader(body))
		Expect(err).NotTo(HaveOccurred())
		return res
	}

	BeforeEach(func() {
		ctx = context.Background()
		lg = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		repo = newMemoryRepository()
		resolver = &staticResolver{owners: map[string]int64{"ABCDE1234F": 1, "PQRST6789Z": 2}}
		publisher = &recordingPublisher{}
		opts = Options{
			MaxRows: 100,
			Now:     func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) },
		}
		build()
	})

	Describe("Upload", func() {
		It("should keep the matched row and report the unmatched PAN", func() {
			res := upload(csvHeader +
				"Water,d,2024-01-01,2024-01-31,abcde1234f,Pune,Camp,100\n" +
				"Power,d,2024-01-01,2024-01-31,xyzab9876c,Pune,Camp,200\n")

			Expect(res.Message).To(Equal("Campaigns uploaded successfully."))
			Expect(res.ValidData).To(HaveLen(1))
			Expect(res.ValidData[0].RowCount()).To(Equal(1))
			Expect(columnLengths(res.ValidData[0].Data)).To(HaveEach(1))
			Expect(res.InvalidPANs).To(Equal([]string{"XYZAB9876C"}))
			Expect(res.Preview).To(HaveLen(2))
			Expect(res.BatchID).NotTo(BeEmpty())
			Expect(resolver.calls).To(Equal(1))
		})

		It("should fold two rows for one user into one record", func() {
			res := upload(csvHeader +
				"Water,d,s,e,ABCDE1234F,Pune,Camp,100\n" +
				"Power,d,s,e,ABCDE1234F,Pune,Camp,200\n")

			Expect(res.ValidData).To(HaveLen(1))
			Expect(res.ValidData[0].Data.BillName).To(Equal([]string{"Water", "Power"}))
			Expect(repo.records).To(HaveLen(1))
		})

		It("should create one record per user sharing the batch timestamp", func() {
			res := upload(csvHeader +
				"A,d,s,e,ABCDE1234F,P,C,1\n" +
				"B,d,s,e,PQRST6789Z,P,C,2\n")

			Expect(res.ValidData).To(HaveLen(2))
			Expect(res.ValidData[0].UploadedAt).To(Equal(res.ValidData[1].UploadedAt))
			Expect(res.ValidData[0].BatchID).To(Equal(res.ValidData[1].BatchID))
			Expect(publisher.types()).To(Equal([]string{events.EventTypeCampaignUploaded}))
		})

		It("should reject an upload with no rows", func() {
			_, err := service.Upload(ctx, 99, strings.NewReader(csvHeader))
			Expect(errors.Is(err, internal.ErrEmptyUpload)).To(BeTrue())
			Expect(resolver.calls).To(Equal(0))
		})

		It("should succeed with no records when nothing matches", func() {
			res := upload(csvHeader + "A,d,s,e,ZZZZZ0000Z,P,C,1\n")
			Expect(res.ValidData).To(BeEmpty())
			Expect(res.InvalidPANs).To(Equal([]string{"ZZZZZ0000Z"}))
		})

		It("should enforce the row cap", func() {
			opts.MaxRows = 1
			build()
			_, err := service.Upload(ctx, 99, strings.NewReader(csvHeader+"A,d,s,e,ABCDE1234F,P,C,1\nB,d,s,e,ABCDE1234F,P,C,1\n"))
			Expect(errors.Is(err, internal.ErrUploadTooLarge)).To(BeTrue())
		})

		It("should surface a persistence failure as an internal error", func() {
			repo.failCreate = 2
			_, err := service.Upload(ctx, 99, strings.NewReader(csvHeader+"A,d,s,e,ABCDE1234F,P,C,1\nB,d,s,e,PQRST6789Z,P,C,2\n"))

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeInternal))
			Expect(repo.records).To(HaveLen(1))
		})

		It("should parse quoted commas in strict mode", func() {
			opts.StrictCSV = true
			build()
			res := upload(csvHeader + "A,\"one, two\",s,e,ABCDE1234F,P,C,1\n")
			Expect(res.ValidData[0].Data.Description).To(Equal([]string{"one, two"}))
		})
	})

	Describe("ExportRows", func() {
		It("should reproduce the accepted rows in order", func() {
			res := upload(csvHeader +
				"Water,w,2024-01-01,2024-01-31,ABCDE1234F,Pune,Camp A,100\n" +
				"Skip,s,2024-01-01,2024-01-31,ZZZZZ0000Z,Pune,Camp B,1\n" +
				"Power,p,2024-02-01,2024-02-28,ABCDE1234F,Goa,Camp C,200\n")

			table, err := service.ExportRows(ctx, res.ValidData[0].ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(table.Headers).To(Equal(ExportHeaders))
			Expect(table.Rows).To(Equal([][]string{
				{"Water", "w", "2024-01-01", "2024-01-31", "ABCDE1234F", "PUNE", "Camp A", "100"},
				{"Power", "p", "2024-02-01", "2024-02-28", "ABCDE1234F", "GOA", "Camp C", "200"},
			}))
		})

		It("should return not found for an unknown id", func() {
			_, err := service.ExportRows(ctx, 404)
			Expect(errors.Is(err, internal.ErrCampaignNotFound)).To(BeTrue())
		})
	})

	Describe("Edit", func() {
		var id int64

		BeforeEach(func() {
			id = upload(csvHeader + "Water,d,s,e,ABCDE1234F,Pune,Camp,100\n").ValidData[0].ID
		})

		It("should reflect a new amount in list and export", func() {
			res, err := service.Edit(ctx, id, EditCampaignDTO{UpdatedData: FieldUpdates{Amount: []string{"150"}}})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Message).To(Equal("Campaign updated successfully."))
			Expect(res.UpdatedCampaign.Data.Amount).To(Equal([]string{"150"}))

			table, err := service.ExportRows(ctx, id)
			Expect(err).NotTo(HaveOccurred())
			Expect(table.Rows[0][AmountColumn]).To(Equal("150"))

			list, err := service.List(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(list).To(HaveLen(1))
			Expect(list[0].ID).To(Equal(id))
		})

		It("should reject a length mismatch", func() {
			_, err := service.Edit(ctx, id, EditCampaignDTO{UpdatedData: FieldUpdates{Amount: []string{"1", "2"}}})
			Expect(errors.Is(err, internal.ErrColumnLengthMismatch)).To(BeTrue())

			c, _ := service.Get(ctx, id)
			Expect(c.Data.Amount).To(Equal([]string{"100"}))
		})

		It("should reject an empty edit", func() {
			_, err := service.Edit(ctx, id, EditCampaignDTO{})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeValidation))
		})

		It("should return not found", func() {
			_, err := service.Edit(ctx, 404, EditCampaignDTO{UpdatedData: FieldUpdates{Amount: []string{"1"}}})
			Expect(errors.Is(err, internal.ErrCampaignNotFound)).To(BeTrue())
		})
	})

	Describe("DeleteRow", func() {
		var id int64

		BeforeEach(func() {
			id = upload(csvHeader +
				"A,d,s,e,ABCDE1234F,P,C,1\n" +
				"B,d,s,e,ABCDE1234F,P,C,2\n").ValidData[0].ID
		})

		It("should remove one row and keep columns aligned", func() {
			res, err := service.DeleteRow(ctx, id, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.CampaignDeleted).To(BeFalse())
			Expect(res.RemainingRows).To(Equal(1))

			c, err := service.Get(ctx, id)
			Expect(err).NotTo(HaveOccurred())
			Expect(c.Data.BillName).To(Equal([]string{"B"}))
			Expect(columnLengths(c.Data)).To(HaveEach(1))
		})

		It("should delete the record with its last row", func() {
			_, err := service.DeleteRow(ctx, id, 1)
			Expect(err).NotTo(HaveOccurred())

			res, err := service.DeleteRow(ctx, id, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.CampaignDeleted).To(BeTrue())

			_, err = service.Get(ctx, id)
			Expect(errors.Is(err, internal.ErrCampaignNotFound)).To(BeTrue())
			Expect(publisher.types()).To(ContainElement(events.EventTypeCampaignRowDeleted))
		})

		It("should reject an out of range index without mutating", func() {
			_, err := service.DeleteRow(ctx, id, 2)
			Expect(errors.Is(err, internal.ErrInvalidRowIndex)).To(BeTrue())

			c, _ := service.Get(ctx, id)
			Expect(c.RowCount()).To(Equal(2))
		})
	})

	Describe("SetStatus", func() {
		var id int64

		BeforeEach(func() {
			id = upload(csvHeader + "A,d,s,e,ABCDE1234F,P,C,1\n").ValidData[0].ID
		})

		It("should be idempotent", func() {
			first, err := service.SetStatus(ctx, id, "Approved", 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(first.Message).To(Equal("Campaign approved successfully"))

			second, err := service.SetStatus(ctx, id, "Approved", 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(second.Campaign.Status).To(Equal(StatusApproved))
			Expect(second.Campaign.StatusHistory).To(HaveLen(2))

			changes := 0
			for _, t := range publisher.types() {
				if t == events.EventTypeCampaignStatusChanged {
					changes++
				}
			}
			Expect(changes).To(Equal(1))
		})

		It("should reject statuses other than Approved and Rejected", func() {
			_, err := service.SetStatus(ctx, id, "Pending", 2)
			Expect(errors.Is(err, internal.ErrInvalidStatus)).To(BeTrue())
		})

		It("should block re-approving a rejected campaign by default", func() {
			_, err := service.SetStatus(ctx, id, "Rejected", 2)
			Expect(err).NotTo(HaveOccurred())

			_, err = service.SetStatus(ctx, id, "Approved", 2)
			Expect(errors.Is(err, internal.ErrInvalidStatusTransition)).To(BeTrue())
		})

		It("should permit re-approval when reversal is enabled", func() {
			opts.AllowStatusReversal = true
			build()

			_, err := service.SetStatus(ctx, id, "Rejected", 2)
			Expect(err).NotTo(HaveOccurred())
			res, err := service.SetStatus(ctx, id, "Approved", 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Campaign.Status).To(Equal(StatusApproved))
			Expect(res.Campaign.StatusHistory).To(HaveLen(3))
		})

		It("should return not found", func() {
			_, err := service.SetStatus(ctx, 404, "Approved", 2)
			Expect(errors.Is(err, internal.ErrCampaignNotFound)).To(BeTrue())
		})
	})

	Describe("List and ListMine", func() {
		It("should summarize every record and filter by owner", func() {
			upload(csvHeader + "A,d,s,e,ABCDE1234F,P,First,1\nB,d,s,e,PQRST6789Z,P,Second,2\n")

			all, err := service.List(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(all).To(HaveLen(2))
			Expect(all[0].CampaignName).To(Equal("First"))
			Expect(all[0].Status).To(Equal(StatusPending))

			mine, err := service.ListMine(ctx, 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(mine).To(HaveLen(1))
			Expect(mine[0].CampaignName).To(Equal("Second"))
		})

		It("should wrap repository failures", func() {
			repo.shouldFail = true
			_, err := service.List(ctx)
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeInternal))
		})
	})
})
