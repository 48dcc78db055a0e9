// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package router

import (
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterChain_Order(t *testing.T) {
	t.Parallel()

	tr := &trace{}
	fc := NewFilterChain(func(*Context) Result {
		tr.add("handler")
		return Text(http.StatusOK, "done")
	}, tracing{"A", tr}, tracing{"B", tr}, tracing{"C", tr})

	res := fc.Invoke(NewContext(http.MethodGet, "/"))

	assert.Equal(t, "done", res.Body)
	assert.Equal(t, []string{
		"in:A", "in:B", "in:C", "handler", "out:C", "out:B", "out:A",
	}, tr.list())
	assert.Equal(t, []string{"A", "B", "C"}, fc.Names())
	assert.Equal(t, 3, fc.Len())
}

func TestFilterChain_ShortCircuit(t *testing.T) {
	t.Parallel()

	tr := &trace{}
	denied := Text(http.StatusForbidden, "denied")
	a := FilterFunc(func(Chain, *Context) Result {
		tr.add("A")
		return denied
	})
	fc := NewFilterChain(func(*Context) Result {
		tr.add("handler")
		return Text(http.StatusOK, "ok")
	}, a, tracing{"B", tr})

	res := fc.Invoke(NewContext(http.MethodGet, "/"))

	assert.Equal(t, denied, res)
	assert.Equal(t, []string{"A"}, tr.list())
}

func TestFilterChain_PostProcess(t *testing.T) {
	t.Parallel()

	header := FilterFunc(func(chain Chain, c *Context) Result {
		return chain.Next(c).WithHeader("X-Filtered", "yes")
	})
	fc := NewFilterChain(textHandler("body"), header)

	res := fc.Invoke(NewContext(http.MethodGet, "/"))

	assert.Equal(t, "yes", res.Header.Get("X-Filtered"))
	assert.Equal(t, "body", res.Body)
}

func TestFilterChain_NextTwicePanics(t *testing.T) {
	t.Parallel()

	calls := 0
	twice := FilterFunc(func(chain Chain, c *Context) Result {
		chain.Next(c)
		return chain.Next(c)
	})
	fc := NewFilterChain(func(*Context) Result {
		calls++
		return NoContent()
	}, twice)

	defer func() {
		rec := recover()
		require.NotNil(t, rec)
		err, ok := rec.(error)
		require.True(t, ok)
		require.ErrorIs(t, err, ErrNextCalledTwice)
		assert.Equal(t, 1, calls)
	}()
	fc.Invoke(NewContext(http.MethodGet, "/"))
}

type retrying struct{}

func (retrying) Name() string { return "retrying" }

func (retrying) Filter(chain Chain, c *Context) Result {
	chain.Next(c)
	return chain.Next(c)
}

func TestFilterChain_NextTwiceAfterShortCircuit(t *testing.T) {
	t.Parallel()

	inner := FilterFunc(func(Chain, *Context) Result { return NoContent() })
	fc := NewFilterChain(textHandler("x"), retrying{}, inner)

	assert.PanicsWithError(t, ErrNextCalledTwice.Error()+": retrying", func() {
		fc.Invoke(NewContext(http.MethodGet, "/"))
	})
}

func TestFilterChain_ConcurrentInvocations(t *testing.T) {
	t.Parallel()

	pass := FilterFunc(func(chain Chain, c *Context) Result { return chain.Next(c) })
	fc := NewFilterChain(paramHandler("n"), pass, pass, pass)

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c := NewContext(http.MethodGet, "/")
			c.bind(nil, Params{{Key: "n", Value: string(rune('a' + i%26))}})
			res := fc.Invoke(c)
			assert.Equal(t, string(rune('a'+i%26)), res.Body)
		}()
	}
	wg.Wait()
}

type plainFilter struct{}

func (*plainFilter) Filter(chain Chain, c *Context) Result { return chain.Next(c) }

func TestFilterName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "A", FilterName(tracing{name: "A"}))
	assert.Equal(t, "router.plainFilter", FilterName(&plainFilter{}))
	assert.Contains(t, FilterName(FilterFunc(func(chain Chain, c *Context) Result { return chain.Next(c) })), "router.TestFilterName")
}

func TestChain_ZeroValuePanics(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() {
		var ch Chain
		ch.Next(NewContext(http.MethodGet, "/"))
	})
}

func TestNewFilterChain_CopiesInput(t *testing.T) {
	t.Parallel()

	tr := &trace{}
	filters := []Filter{tracing{"A", tr}}
	fc := NewFilterChain(textHandler("x"), filters...)
	filters[0] = tracing{"Z", tr}

	fc.Invoke(NewContext(http.MethodGet, "/"))
	assert.Equal(t, []string{"in:A", "out:A"}, tr.list())
}
