package kindle

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSanitizeFilename(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Мастер и Маргарита", "Master_i_Margarita"},
		{`"Пикник" на обочине`, "Piknik_na_obochine"},
		{"Clean Code", "Clean_Code"},
		{"Щит и меч", "Schit_i_mech"},
		{"!!!", "book"},
		{"", "book"},
		{"a  b", "a_b"},
	}

	for _, tc := range cases {
		require.Equal(t, tc.want, SanitizeFilename(tc.in), "входное название: %q", tc.in)
	}
}

func TestSanitizeFilenameLength(t *testing.T) {
	long := ""
	for i := 0; i < 30; i++ {
		long += "abc"
	}

	got := SanitizeFilename(long)
	require.LessOrEqual(t, len(got), 50)
	require.NotEmpty(t, got)
}

func TestNewSenderValidation(t *testing.T) {
	_, err := NewSender(Config{Server: "smtp.gmail.com"})
	require.Error(t, err)

	_, err = NewSender(Config{Login: "a@b.c", Password: "x"})
	require.Error(t, err)

	s, err := NewSender(Config{Server: "smtp.gmail.com", Port: 465, Login: "a@b.c", Password: "x"})
	require.NoError(t, err)
	require.NotNil(t, s)
}

func TestSendBookRequiresRecipient(t *testing.T) {
	s, err := NewSender(Config{Server: "smtp.gmail.com", Port: 465, Login: "a@b.c", Password: "x"})
	require.NoError(t, err)

	err = s.SendBook([]byte("data"), "Книга", "Автор", "")
	require.Error(t, err)
}
