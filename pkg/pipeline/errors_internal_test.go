package pipeline

import (
	"errors"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorChans(t *testing.T) {
	t.Parallel()

	ecs := errorChans{}
	ec1 := &errorChan{}
	ec2 := &errorChan{}
	doneChan := make(chan struct{}, 2)

	go func() {
		ecs.add(ec1)

		doneChan <- struct{}{}
	}()

	go func() {
		ecs.add(ec2)

		doneChan <- struct{}{}
	}()

	<-doneChan
	<-doneChan
	assert.ElementsMatch(t, []*errorChan{ec1, ec2}, ecs.all())
}

func TestReportKeepsFirstError(t *testing.T) {
	t.Parallel()

	errC := make(chan error, 1)
	first := errors.New("first")

	report(errC, first)
	report(errC, errors.New("second"))
	close(errC)

	got := []error{}
	for err := range errC {
		got = append(got, err)
	}

	require.Len(t, got, 1)
	assert.ErrorIs(t, got[0], first)
}

func TestMergeErrorsAllNil(t *testing.T) {
	t.Parallel()

	outErrorChan := mergeErrors(newErrorChan("sample", nil), newErrorChan("assemble", nil))
	gotErr, open := <-outErrorChan
	assert.False(t, open)
	assert.NoError(t, gotErr)
}

func TestMergeErrorsPrefixesStageName(t *testing.T) {
	t.Parallel()

	errSample := errors.New("sampler failed")
	errAssemble := errors.New("assembler failed")

	chan1 := make(chan error, 1)
	chan2 := make(chan error, 1)
	chan1 <- errSample
	chan2 <- errAssemble
	close(chan1)
	close(chan2)

	gotErrs := []error{}
	for err := range mergeErrors(newErrorChan("sample", chan1), newErrorChan("assemble", chan2), newErrorChan("sink", nil)) {
		gotErrs = append(gotErrs, err)
	}

	sort.Slice(gotErrs, func(i, j int) bool {
		return gotErrs[i].Error() < gotErrs[j].Error()
	})

	require.Len(t, gotErrs, 2)
	assert.ErrorIs(t, gotErrs[0], errAssemble)
	assert.Equal(t, "assemble: assembler failed", gotErrs[0].Error())
	assert.ErrorIs(t, gotErrs[1], errSample)
	assert.Equal(t, "sample: sampler failed", gotErrs[1].Error())
}
