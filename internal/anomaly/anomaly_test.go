package anomaly

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/parcel-pipeline/internal/parcel"
)

func TestDefaultPolicy_Actions(t *testing.T) {
	p := DefaultPolicy()

	assert.Equal(t, Drop, p.ActionFor(MissingStreet))
	assert.Equal(t, Drop, p.ActionFor(MissingNumber))
	assert.Equal(t, Drop, p.ActionFor(StandardizationFailure))
	assert.Equal(t, Advisory, p.ActionFor(POBox))
	assert.Equal(t, Advisory, p.ActionFor(InvalidZip))
	assert.Equal(t, Advisory, p.ActionFor(GeometryFailure))
}

func TestPolicy_UnknownCategoryIsAdvisory(t *testing.T) {
	p := Policy{}
	assert.Equal(t, Advisory, p.ActionFor(Category("brand_new")))
}

func TestLogger_ObserveCountsAndAction(t *testing.T) {
	l := NewLogger(DefaultPolicy(), false)

	act := l.Observe(MissingStreet, parcel.RegionCity, "12345", "", "no street column value")
	assert.Equal(t, Drop, act)

	act = l.Observe(POBox, parcel.RegionCounty, "23X456", "PO BOX 191", "")
	assert.Equal(t, Advisory, act)
	l.Observe(POBox, parcel.RegionCounty, "23X457", "P.O. BOX 7", "")

	counts := l.Counts()
	assert.Equal(t, 1, counts[MissingStreet])
	assert.Equal(t, 2, counts[POBox])
	assert.Nil(t, l.Records())
}

func TestLogger_KeepsRecordsWhenAsked(t *testing.T) {
	l := NewLogger(DefaultPolicy(), true)
	l.Observe(InvalidZip, parcel.RegionCity, "9", "999", "")

	recs := l.Records()
	assert.Len(t, recs, 1)
	assert.Equal(t, InvalidZip, recs[0].Category)
	assert.Equal(t, Advisory, recs[0].Action)
	assert.Equal(t, "999", recs[0].RawValue)
}

func TestLogger_ConcurrentObserve(t *testing.T) {
	l := NewLogger(DefaultPolicy(), false)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				l.Observe(HyphenatedRange, parcel.RegionCounty, "p", "1-3 Main St", "")
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 800, l.Counts()[HyphenatedRange])
}
