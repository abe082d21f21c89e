package service

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecordLocksSerialisePerRecord(t *testing.T) {
	locks := newRecordLocks()
	counter := 0

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.Lock("r1")
			counter++
			unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, counter)
	assert.Equal(t, 0, locks.size())
}

func TestRecordLocksIndependentKeys(t *testing.T) {
	locks := newRecordLocks()
	unlockA := locks.Lock("a")
	unlockB := locks.Lock("b")
	assert.Equal(t, 2, locks.size())
	unlockA()
	unlockB()
	assert.Equal(t, 0, locks.size())
}
