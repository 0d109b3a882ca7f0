package cookies_test

import (
	"testing"

	"github.com/savendebyc-boop/sgo-telma/cookies"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	t.Run("takes name and value before attributes", func(t *testing.T) {
		jar := cookies.Decode([]string{
			"ESRNSec=abc123; path=/; HttpOnly",
			"NSSESSIONID=xyz; Secure",
		})
		require.Equal(t, cookies.Jar{"ESRNSec": "abc123", "NSSESSIONID": "xyz"}, jar)
	})

	t.Run("splits on the first equals sign only", func(t *testing.T) {
		jar := cookies.Decode([]string{"token=a=b=c; path=/"})
		require.Equal(t, "a=b=c", jar["token"])
	})

	t.Run("empty value is kept", func(t *testing.T) {
		jar := cookies.Decode([]string{"flag=; Max-Age=0"})
		v, ok := jar["flag"]
		require.True(t, ok)
		require.Empty(t, v)
	})

	t.Run("malformed entries are dropped", func(t *testing.T) {
		jar := cookies.Decode([]string{"novalue; path=/", "=orphan", "ok=1"})
		require.Equal(t, cookies.Jar{"ok": "1"}, jar)
	})

	t.Run("nil headers give an empty jar", func(t *testing.T) {
		jar := cookies.Decode(nil)
		require.NotNil(t, jar)
		require.Empty(t, jar)
	})
}

func TestJar_Merge(t *testing.T) {
	t.Run("last write wins by name", func(t *testing.T) {
		jar := cookies.Decode([]string{"a=1", "b=2"})
		dropped := jar.Merge([]string{"a=3; path=/", "c=4"})
		require.Zero(t, dropped)
		require.Equal(t, cookies.Jar{"a": "3", "b": "2", "c": "4"}, jar)
	})

	t.Run("duplicates inside one batch keep the later value", func(t *testing.T) {
		jar := cookies.Decode([]string{"a=first", "a=second"})
		require.Equal(t, "second", jar["a"])
	})

	t.Run("reports dropped entries", func(t *testing.T) {
		jar := make(cookies.Jar)
		require.Equal(t, 2, jar.Merge([]string{"bad", "", "good=1"}))
		require.Equal(t, cookies.Jar{"good": "1"}, jar)
	})
}

func TestEncode(t *testing.T) {
	require.Equal(t, "a=1; b=2; c=x=y", cookies.Encode(cookies.Jar{"c": "x=y", "a": "1", "b": "2"}))
	require.Equal(t, "", cookies.Encode(cookies.Jar{}))
	require.Equal(t, "", cookies.Encode(nil))
}

func TestJar_Clone(t *testing.T) {
	orig := cookies.Jar{"a": "1"}
	c := orig.Clone()
	c["a"] = "2"
	require.Equal(t, "1", orig["a"])

	var nilJar cookies.Jar
	require.Nil(t, nilJar.Clone())
}
