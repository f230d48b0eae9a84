package usagecollector_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"code.cloudfoundry.org/lager"

	"github.com/metermill/rateplan-console/rateplanio"

	. "github.com/metermill/rateplan-console/usagecollector"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type fakeFetcher struct {
	mu        sync.Mutex
	calls     int
	records   []rateplanio.UsageRecord
	errOnCall map[int]error
}

func (f *fakeFetcher) FetchUsage(ctx context.Context, lastRecord *rateplanio.UsageRecord) ([]rateplanio.UsageRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	call := f.calls
	f.calls++
	if err, ok := f.errOnCall[call]; ok {
		return nil, err
	}
	return f.records, nil
}

func (f *fakeFetcher) Kind() string { return "fake-feed" }

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeUsageStore struct {
	mu         sync.Mutex
	stored     []rateplanio.UsageRecord
	lastRecord *rateplanio.UsageRecord
	storeCalls int
}

func (s *fakeUsageStore) StoreUsage(ctx context.Context, records []rateplanio.UsageRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stored = append(s.stored, records...)
	s.storeCalls++
	return nil
}

func (s *fakeUsageStore) GetUsageSummaries(ctx context.Context, filter rateplanio.UsageFilter) ([]rateplanio.UsageSummary, error) {
	return nil, nil
}

func (s *fakeUsageStore) GetLastUsageRecord(ctx context.Context) (*rateplanio.UsageRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRecord, nil
}

func (s *fakeUsageStore) storeCallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.storeCalls
}

var _ = Describe("Collector", func() {

	var (
		logger     = lager.NewLogger("test")
		fetcher    *fakeFetcher
		store      *fakeUsageStore
		cfg        Config
		ctx        context.Context
		cancelFunc context.CancelFunc
	)

	BeforeEach(func() {
		fetcher = &fakeFetcher{errOnCall: map[int]error{}}
		store = &fakeUsageStore{}
		cfg = Config{
			Logger:      logger,
			Fetcher:     fetcher,
			Store:       store,
			Schedule:    200 * time.Millisecond,
			MinWaitTime: 100 * time.Millisecond,
		}
		ctx, cancelFunc = context.WithCancel(context.Background())
	})

	AfterEach(func() {
		cancelFunc()
	})

	It("should fetch usage regularly", func() {
		go New(cfg).Run(ctx)

		Eventually(fetcher.callCount, 5*time.Second).Should(BeNumerically(">", 3))
		Eventually(store.storeCallCount, 5*time.Second).Should(BeNumerically(">", 3))
	})

	It("should handle errors and retry again", func() {
		fetcher.errOnCall[0] = errors.New("feed down")

		go New(cfg).Run(ctx)

		Eventually(fetcher.callCount, 5*time.Second).Should(BeNumerically(">", 1))
	})

	It("should wait only the MinWaitTime while there is more to collect", func() {
		cfg.Schedule = 999 * time.Minute
		cfg.MinWaitTime = 100 * time.Millisecond

		store.lastRecord = &rateplanio.UsageRecord{GUID: "seen-record"}
		fetcher.records = []rateplanio.UsageRecord{{GUID: "unseen-record"}}

		go New(cfg).Run(ctx)

		Eventually(fetcher.callCount, 5*time.Second).Should(BeNumerically(">", 2))
	})

	It("should wait the full Schedule once caught up with the feed", func() {
		cfg.Schedule = 10 * time.Minute
		cfg.MinWaitTime = 0

		store.lastRecord = &rateplanio.UsageRecord{GUID: "seen-record"}
		fetcher.records = []rateplanio.UsageRecord{{GUID: "seen-record"}}

		go New(cfg).Run(ctx)

		Eventually(fetcher.callCount, 5*time.Second).Should(Equal(1))
		Consistently(fetcher.callCount, 500*time.Millisecond).Should(Equal(1))
	})

	It("should wait the full Schedule if the feed returns nothing", func() {
		cfg.Schedule = 10 * time.Minute
		cfg.MinWaitTime = 0

		go New(cfg).Run(ctx)

		Eventually(fetcher.callCount, 5*time.Second).Should(Equal(1))
		Consistently(fetcher.callCount, 500*time.Millisecond).Should(Equal(1))
	})

	It("should stop gracefully when context is cancelled", func() {
		ctx, cancelFunc := context.WithCancel(context.Background())

		c := make(chan bool)
		go func() {
			New(cfg).Run(ctx)
			c <- true
		}()

		cancelFunc()

		Eventually(c, 5*time.Second).Should(Receive(BeTrue()))
	})
})
