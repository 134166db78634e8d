package fs

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/cafefs/pkg/fsa"
)

func TestNewClient(t *testing.T) {
	t.Parallel()

	svc := &fakeService{}
	c := newTestClient(t, svc, WithMaxBytesPerRequest(0))

	assert.NotEmpty(t, c.ID())
	assert.Equal(t, fsa.ClientHandle(7), c.Handle())
	assert.Equal(t, uint32(MaxBytesPerRequest), c.MaxBytesPerRequest())
	assert.False(t, c.IsFatal())
	assert.Equal(t, fsa.StatusOK, c.LastError())
}

func TestCloseClient(t *testing.T) {
	t.Parallel()

	svc := &fakeService{}
	c := newTestClient(t, svc)

	require.NoError(t, c.Close())
	assert.ErrorIs(t, c.Close(), ErrClientClosed)
	assert.Equal(t, []fsa.ClientHandle{7}, svc.closed)

	var block CmdBlock
	assert.Equal(t, StatusFatalError, c.ChangeDir(&block, "/vol", ErrorFlagNone))
	assert.Empty(t, svc.submitted())
	assert.False(t, block.Busy())
}

func TestClientHealthcheck(t *testing.T) {
	t.Parallel()

	svc := &fakeService{respond: respondWith(fsa.StatusPermissionError)}
	c := newTestClient(t, svc)
	assert.Equal(t, "fs-client", c.Name())
	require.NoError(t, c.Healthcheck(context.Background()))

	var block CmdBlock
	assert.Equal(t, StatusFatalError, c.Remove(&block, "/vol/file", ErrorFlagNone))
	err := c.Healthcheck(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PermissionError")

	c.ClearFatalError()
	require.NoError(t, c.Healthcheck(context.Background()))

	require.NoError(t, c.Close())
	assert.ErrorIs(t, c.Healthcheck(context.Background()), ErrClientClosed)
}

func TestErrorMask(t *testing.T) {
	t.Parallel()

	t.Run("MaskedErrorIsReturned", func(t *testing.T) {
		t.Parallel()
		svc := &fakeService{respond: respondWith(fsa.StatusNotFound)}
		c := newTestClient(t, svc)

		var block CmdBlock
		var st Stat
		assert.Equal(t, StatusNotFound, c.GetStat(&block, "/vol/missing", &st, ErrorFlagNotFound))
		assert.False(t, c.IsFatal())
		assert.Equal(t, fsa.StatusOK, c.LastError())
	})

	t.Run("UnmaskedErrorLatches", func(t *testing.T) {
		t.Parallel()
		svc := &fakeService{respond: respondWith(fsa.StatusPermissionError)}
		c := newTestClient(t, svc)

		var block CmdBlock
		var st Stat
		assert.Equal(t, StatusFatalError, c.GetStat(&block, "/vol/locked", &st, ErrorFlagNotFound))
		assert.True(t, c.IsFatal())
		assert.Equal(t, fsa.StatusPermissionError, c.LastError())
		assert.False(t, block.Busy())
	})

	t.Run("EndBypassesMask", func(t *testing.T) {
		t.Parallel()
		svc := &fakeService{respond: respondWith(fsa.StatusEndOfDir)}
		c := newTestClient(t, svc)

		var block CmdBlock
		var entry DirEntry
		assert.Equal(t, StatusEnd, c.ReadDir(&block, 3, &entry, ErrorFlagNone))
		assert.False(t, c.IsFatal())
	})
}

func TestFatalLatchFirstFaultWins(t *testing.T) {
	t.Parallel()

	svc := &fakeService{respond: respondWith(fsa.StatusPermissionError)}
	c := newTestClient(t, svc)

	var block CmdBlock
	assert.Equal(t, StatusFatalError, c.ReadFile(&block, nil, 1, 1, 5, ReadFlagNone, ErrorFlagAll))
	assert.Equal(t, fsa.StatusInvalidBuffer, c.LastError())

	// A latched client rejects commands before they reach the block.
	assert.Equal(t, StatusFatalError, c.Remove(&block, "/vol/file", ErrorFlagAll))
	assert.Equal(t, fsa.StatusInvalidBuffer, c.LastError())
	assert.Empty(t, svc.submitted())

	c.ClearFatalError()
	assert.False(t, c.IsFatal())
	assert.Equal(t, fsa.StatusOK, c.LastError())

	assert.Equal(t, StatusPermissionError, c.Remove(&block, "/vol/file", ErrorFlagAll))
	assert.Equal(t, StatusFatalError, c.Remove(&block, "/vol/file", ErrorFlagNone))
	assert.Equal(t, fsa.StatusPermissionError, c.LastError())
}

func TestInvalidBlockAndCompletion(t *testing.T) {
	t.Parallel()

	t.Run("NilBlock", func(t *testing.T) {
		t.Parallel()
		c := newTestClient(t, &fakeService{})
		assert.Equal(t, StatusFatalError, c.ChangeDir(nil, "/vol", ErrorFlagAll))
		assert.Equal(t, fsa.StatusInvalidParam, c.LastError())
	})

	t.Run("NilCallback", func(t *testing.T) {
		t.Parallel()
		c := newTestClient(t, &fakeService{})
		var block CmdBlock
		assert.Equal(t, StatusFatalError, c.ChangeDirAsync(&block, "/vol", ErrorFlagAll, Callback{}))
		assert.Equal(t, fsa.StatusInvalidParam, c.LastError())
		assert.False(t, block.Busy())
	})

	t.Run("NilQueue", func(t *testing.T) {
		t.Parallel()
		c := newTestClient(t, &fakeService{})
		var block CmdBlock
		assert.Equal(t, StatusFatalError, c.ChangeDirAsync(&block, "/vol", ErrorFlagAll, Queue{}))
		assert.True(t, c.IsFatal())
	})
}

func TestBusyBlockRejected(t *testing.T) {
	t.Parallel()

	hold := make(chan struct{})
	svc := &fakeService{
		hold: hold,
		respond: func(buf *fsa.ShimBuffer) fsa.Status {
			buf.SetResponseWord(0x1234)
			return fsa.StatusOK
		},
	}
	c := newTestClient(t, svc)
	rec := newRecorder()

	var block CmdBlock
	var fh FileHandle
	require.Equal(t, StatusOK, c.OpenFileAsync(&block, "/vol/save/game.dat", "r", &fh, ErrorFlagNone, rec.callback()))
	require.True(t, block.Busy())

	assert.Equal(t, StatusFatalError, c.ChangeDirAsync(&block, "/vol", ErrorFlagAll, rec.callback()))
	assert.Equal(t, fsa.StatusBusy, c.LastError())
	assert.True(t, block.Busy())

	close(hold)
	rec.wait(t)

	results := rec.all()
	require.Len(t, results, 1)
	assert.Equal(t, StatusOK, results[0].Status)
	assert.Same(t, &block, results[0].Block)
	assert.Equal(t, FileHandle(0x1234), fh)
	assert.Equal(t, []fsa.Command{fsa.CommandOpenFile}, svc.submitted())
	assert.False(t, block.Busy())
}

func TestShimPrepareError(t *testing.T) {
	t.Parallel()

	svc := &fakeService{}
	c := newTestClient(t, svc)

	var block CmdBlock
	assert.Equal(t, StatusFatalError, c.CloseFile(&block, 0, ErrorFlagAll))
	assert.Equal(t, fsa.StatusInvalidFileHandle, c.LastError())
	assert.False(t, block.Busy())
	assert.Empty(t, svc.submitted())
}

func TestGetCwdBufferSize(t *testing.T) {
	t.Parallel()

	respond := func(buf *fsa.ShimBuffer) fsa.Status {
		buf.SetCwd("/vol/save")
		return fsa.StatusOK
	}

	t.Run("NilBuffer", func(t *testing.T) {
		t.Parallel()
		c := newTestClient(t, &fakeService{respond: respond})
		var block CmdBlock
		assert.Equal(t, StatusFatalError, c.GetCwd(&block, nil, ErrorFlagAll))
		assert.Equal(t, fsa.StatusInvalidBuffer, c.LastError())
	})

	t.Run("ShortBuffers", func(t *testing.T) {
		t.Parallel()
		for n := 0; n < MaxPathLength; n++ {
			spy := newSpyShim()
			c := newTestClient(t, &fakeService{respond: respond}, WithShim(spy))

			var block CmdBlock
			require.Equal(t, StatusFatalError, c.GetCwd(&block, make([]byte, n), ErrorFlagAll), "size %d", n)
			require.Equal(t, fsa.StatusInvalidParam, c.LastError(), "size %d", n)
			require.Zero(t, spy.count(fsa.CommandGetCwd), "size %d", n)
		}
	})

	t.Run("LargeEnoughBuffers", func(t *testing.T) {
		t.Parallel()
		for _, n := range []int{MaxPathLength, MaxPathLength + 1, 0x400} {
			spy := newSpyShim()
			c := newTestClient(t, &fakeService{respond: respond}, WithShim(spy))

			out := make([]byte, n)
			var block CmdBlock
			require.Equal(t, StatusOK, c.GetCwd(&block, out, ErrorFlagNone), "size %d", n)
			assert.Equal(t, 1, spy.count(fsa.CommandGetCwd))
			assert.Equal(t, "/vol/save\x00", string(out[:10]))
		}
	})
}

func TestArgumentValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		run    func(c *Client, b *CmdBlock) Status
		reason fsa.Status
	}{
		{"ChangeDirEmptyPath", func(c *Client, b *CmdBlock) Status {
			return c.ChangeDir(b, "", ErrorFlagAll)
		}, fsa.StatusInvalidPath},
		{"OpenFileNilHandle", func(c *Client, b *CmdBlock) Status {
			return c.OpenFile(b, "/a", "r", nil, ErrorFlagAll)
		}, fsa.StatusInvalidBuffer},
		{"OpenFileEmptyPath", func(c *Client, b *CmdBlock) Status {
			var fh FileHandle
			return c.OpenFile(b, "", "r", &fh, ErrorFlagAll)
		}, fsa.StatusInvalidPath},
		{"OpenFileEmptyMode", func(c *Client, b *CmdBlock) Status {
			var fh FileHandle
			return c.OpenFile(b, "/a", "", &fh, ErrorFlagAll)
		}, fsa.StatusInvalidParam},
		{"OpenDirNilHandle", func(c *Client, b *CmdBlock) Status {
			return c.OpenDir(b, "", nil, ErrorFlagAll)
		}, fsa.StatusInvalidBuffer},
		{"ReadDirNilEntry", func(c *Client, b *CmdBlock) Status {
			return c.ReadDir(b, 3, nil, ErrorFlagAll)
		}, fsa.StatusInvalidBuffer},
		{"GetStatEmptyPath", func(c *Client, b *CmdBlock) Status {
			return c.GetStat(b, "", nil, ErrorFlagAll)
		}, fsa.StatusInvalidPath},
		{"GetStatNilOutput", func(c *Client, b *CmdBlock) Status {
			return c.GetStat(b, "/a", nil, ErrorFlagAll)
		}, fsa.StatusInvalidBuffer},
		{"GetFreeSpaceNilOutput", func(c *Client, b *CmdBlock) Status {
			return c.GetFreeSpaceSize(b, "/a", nil, ErrorFlagAll)
		}, fsa.StatusInvalidBuffer},
		{"GetPosNilOutput", func(c *Client, b *CmdBlock) Status {
			return c.GetPosFile(b, 5, nil, ErrorFlagAll)
		}, fsa.StatusInvalidBuffer},
		{"GetStatFileNilOutput", func(c *Client, b *CmdBlock) Status {
			return c.GetStatFile(b, 5, nil, ErrorFlagAll)
		}, fsa.StatusInvalidBuffer},
		{"ReadShortBuffer", func(c *Client, b *CmdBlock) Status {
			return c.ReadFile(b, make([]byte, 10), 4, 3, 5, ReadFlagNone, ErrorFlagAll)
		}, fsa.StatusInvalidBuffer},
		{"WriteNilBuffer", func(c *Client, b *CmdBlock) Status {
			return c.WriteFile(b, nil, 4, 3, 5, WriteFlagNone, ErrorFlagAll)
		}, fsa.StatusInvalidBuffer},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc := &fakeService{}
			c := newTestClient(t, svc)

			var block CmdBlock
			assert.Equal(t, StatusFatalError, tt.run(c, &block))
			assert.True(t, c.IsFatal())
			assert.Equal(t, tt.reason, c.LastError())
			assert.False(t, block.Busy())
			assert.Empty(t, svc.submitted())
		})
	}
}

func TestOpenFileDefaults(t *testing.T) {
	t.Parallel()

	svc := &fakeService{respond: func(buf *fsa.ShimBuffer) fsa.Status {
		buf.SetResponseWord(9)
		return fsa.StatusOK
	}}
	c := newTestClient(t, svc)

	var block CmdBlock
	var plain, extended FileHandle
	require.Equal(t, StatusOK, c.OpenFile(&block, "/vol/save/a.bin", "w+", &plain, ErrorFlagNone))
	require.Equal(t, StatusOK, c.OpenFileEx(&block, "/vol/save/a.bin", "w+", 0x660, 0, 0, &extended, ErrorFlagNone))

	require.Len(t, svc.opens, 2)
	assert.Equal(t, svc.opens[1], svc.opens[0])
	assert.Equal(t, uint32(0x660), svc.opens[0].Unk1)
	assert.Zero(t, svc.opens[0].Unk2)
	assert.Zero(t, svc.opens[0].Unk3)
	assert.Equal(t, plain, extended)
}

func TestSyncMatchesAsync(t *testing.T) {
	t.Parallel()

	results := []fsa.Status{
		fsa.StatusOK,
		fsa.StatusNotFound,
		fsa.StatusPermissionError,
		fsa.StatusMediaError,
	}

	for _, res := range results {
		res := res
		t.Run(res.String(), func(t *testing.T) {
			t.Parallel()

			syncClient := newTestClient(t, &fakeService{respond: respondWith(res)})
			asyncClient := newTestClient(t, &fakeService{respond: respondWith(res), hold: closedChan()})

			var syncBlock, asyncBlock CmdBlock
			want := syncClient.Remove(&syncBlock, "/vol/save/a.bin", ErrorFlagNotFound)

			ch := make(chan *AsyncResult, 1)
			require.Equal(t, StatusOK, asyncClient.RemoveAsync(&asyncBlock, "/vol/save/a.bin", ErrorFlagNotFound, Queue{C: ch}))

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			got, err := GetAsyncResult(ctx, ch)
			require.NoError(t, err)

			assert.Equal(t, want, got.Status)
			assert.Equal(t, syncClient.IsFatal(), asyncClient.IsFatal())
			assert.Equal(t, syncClient.LastError(), asyncClient.LastError())
		})
	}
}

// closedChan returns a released hold so completions run on their own
// goroutine without waiting.
func closedChan() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

func TestCompletionDelivery(t *testing.T) {
	t.Parallel()

	t.Run("Callback", func(t *testing.T) {
		t.Parallel()
		c := newTestClient(t, &fakeService{})

		calls := 0
		var gotCtx any
		var block CmdBlock
		cb := Callback{
			Func: func(client *Client, b *CmdBlock, status Status, context any) {
				calls++
				gotCtx = context
				assert.Same(t, c, client)
				assert.Same(t, &block, b)
				assert.Equal(t, StatusOK, status)
			},
			Context: "slot-1",
		}
		require.Equal(t, StatusOK, c.MakeDirAsync(&block, "/vol/save/slot1", ErrorFlagNone, cb))
		assert.Equal(t, 1, calls)
		assert.Equal(t, "slot-1", gotCtx)
	})

	t.Run("Queue", func(t *testing.T) {
		t.Parallel()
		c := newTestClient(t, &fakeService{hold: closedChan()})

		ch := make(chan *AsyncResult, 1)
		var block CmdBlock
		require.Equal(t, StatusOK, c.SetPosFileAsync(&block, 5, 100, ErrorFlagNone, Queue{C: ch, Context: 42}))

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		res, err := GetAsyncResult(ctx, ch)
		require.NoError(t, err)
		assert.Equal(t, StatusOK, res.Status)
		assert.Equal(t, 42, res.Context)
		assert.Same(t, &block, res.Block)
	})

	t.Run("GetAsyncResultHonoursContext", func(t *testing.T) {
		t.Parallel()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := GetAsyncResult(ctx, make(chan *AsyncResult))
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("BlockReusableFromCallback", func(t *testing.T) {
		t.Parallel()
		svc := &fakeService{}
		c := newTestClient(t, svc)

		var block CmdBlock
		var second Status = -99
		cb := Callback{Func: func(client *Client, b *CmdBlock, status Status, _ any) {
			second = client.ChangeDir(b, "/vol/save", ErrorFlagNone)
		}}
		require.Equal(t, StatusOK, c.MakeDirAsync(&block, "/vol/save", ErrorFlagNone, cb))
		assert.Equal(t, StatusOK, second)
		assert.Equal(t, []fsa.Command{fsa.CommandMakeDir, fsa.CommandChangeDir}, svc.submitted())
	})
}

func TestCmdBlockUserData(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, &fakeService{})
	var block CmdBlock
	block.SetUserData("request-7")
	require.Equal(t, StatusOK, c.ChangeDir(&block, "/vol", ErrorFlagNone))
	assert.Equal(t, "request-7", block.UserData())
}

func TestQueries(t *testing.T) {
	t.Parallel()

	svc := &fakeService{respond: func(buf *fsa.ShimBuffer) fsa.Status {
		switch buf.QueryType() {
		case fsa.QueryFreeSpaceSize:
			buf.SetFreeSpace(1 << 33)
		case fsa.QueryDirSize:
			buf.SetFreeSpace(4096)
		case fsa.QueryEntryNum:
			buf.SetResponseWord(3)
		case fsa.QueryStat:
			buf.SetStat(&fsa.Stat{Flags: fsa.StatDirectory, Mode: 0x660})
		}
		return fsa.StatusOK
	}}
	c := newTestClient(t, svc)

	var block CmdBlock
	var free, dirSize uint64
	var entries uint32
	var st Stat

	require.Equal(t, StatusOK, c.GetFreeSpaceSize(&block, "/vol", &free, ErrorFlagNone))
	require.Equal(t, StatusOK, c.GetDirSize(&block, "/vol/save", &dirSize, ErrorFlagNone))
	require.Equal(t, StatusOK, c.GetEntryNum(&block, "/vol/save", &entries, ErrorFlagNone))
	require.Equal(t, StatusOK, c.GetStat(&block, "/vol/save", &st, ErrorFlagNone))

	assert.Equal(t, uint64(1<<33), free)
	assert.Equal(t, uint64(4096), dirSize)
	assert.Equal(t, uint32(3), entries)
	assert.Equal(t, fsa.StatDirectory, st.Flags)
	assert.Equal(t, uint32(0x660), st.Mode)
}
