package users_test

import (
	"net/url"
	"testing"

	"github.com/aussiebroadwan/console/internal/console/users"
	"github.com/aussiebroadwan/console/pkg/consolesdk"
	"github.com/stretchr/testify/require"
)

func TestFilter(t *testing.T) {
	list := []consolesdk.UserAccount{
		{ID: "1", Name: "Alice", Email: "alice@example.com"},
		{ID: "2", Name: "Bob", Email: "bob@corp.io"},
		{ID: "3", Name: "Carol", Email: "carol@example.com"},
	}

	tests := []struct {
		term string
		want []string
	}{
		{"", []string{"1", "2", "3"}},
		{"ALI", []string{"1"}},
		{"example", []string{"1", "3"}},
		{"corp", []string{"2"}},
		{"zzz", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.term, func(t *testing.T) {
			ids := []string{}
			for _, u := range users.Filter(list, tt.term) {
				ids = append(ids, u.ID)
			}
			require.Equal(t, tt.want, ids)
		})
	}
}

func validCreateForm() users.CreateForm {
	return users.CreateForm{
		Name:            "Bob",
		Email:           "bob@example.com",
		Role:            consolesdk.RoleUser,
		Password:        "secret123",
		PasswordConfirm: "secret123",
	}
}

func TestValidateCreateForm(t *testing.T) {
	v := users.NewValidator()

	t.Run("valid form", func(t *testing.T) {
		require.NoError(t, v.Validate(validCreateForm()))
	})

	tests := []struct {
		name   string
		mutate func(*users.CreateForm)
		field  string
		msg    string
	}{
		{"missing name", func(f *users.CreateForm) { f.Name = "" }, "name", "Name is required"},
		{"missing email", func(f *users.CreateForm) { f.Email = "" }, "email", "Email is required"},
		{"bad email", func(f *users.CreateForm) { f.Email = "bob" }, "email", "Invalid email address"},
		{"one letter tld", func(f *users.CreateForm) { f.Email = "alice@example.c" }, "email", "Invalid email address"},
		{"no tld", func(f *users.CreateForm) { f.Email = "alice@localhost" }, "email", "Invalid email address"},
		{"space in address", func(f *users.CreateForm) { f.Email = "alice smith@example.com" }, "email", "Invalid email address"},
		{"missing role", func(f *users.CreateForm) { f.Role = "" }, "role", "Role is required"},
		{"unknown role", func(f *users.CreateForm) { f.Role = "ROOT" }, "role", "role must be one of: ADMIN USER"},
		{"missing password", func(f *users.CreateForm) { f.Password = ""; f.PasswordConfirm = "" }, "password", "Password is required"},
		{"short password", func(f *users.CreateForm) { f.Password = "12345"; f.PasswordConfirm = "12345" }, "password", "Password must be at least 6 characters"},
		{"missing confirmation", func(f *users.CreateForm) { f.PasswordConfirm = "" }, "passwordConfirm", "Please confirm your password"},
		{"mismatched confirmation", func(f *users.CreateForm) { f.PasswordConfirm = "secret124" }, "passwordConfirm", "Passwords do not match"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := validCreateForm()
			tt.mutate(&form)

			err := v.Validate(form)

			var ve users.ValidationError
			require.ErrorAs(t, err, &ve)
			require.Equal(t, tt.msg, ve[tt.field])
		})
	}

	t.Run("accepted addresses", func(t *testing.T) {
		for _, email := range []string{"Alice.Smith+ops@Example.COM", "bob_1%x@mail.example.co", "c-d@sub.example.museum"} {
			form := validCreateForm()
			form.Email = email
			require.NoError(t, v.Validate(form), email)
		}
	})

	t.Run("reports every failing field", func(t *testing.T) {
		err := v.Validate(users.CreateForm{})

		var ve users.ValidationError
		require.ErrorAs(t, err, &ve)
		require.Len(t, ve, 5)
	})
}

func TestParseCreateForm(t *testing.T) {
	form := users.ParseCreateForm(url.Values{
		"name":            {"  Bob "},
		"email":           {" bob@example.com"},
		"role":            {"ADMIN"},
		"department":      {"Sales"},
		"password":        {" secret123 "},
		"passwordConfirm": {" secret123 "},
	})

	require.Equal(t, "Bob", form.Name)
	require.Equal(t, "bob@example.com", form.Email)
	require.Equal(t, " secret123 ", form.Password, "passwords are not trimmed")

	nu := form.NewUser()
	require.Equal(t, []string{"ADMIN"}, nu.Roles)
	require.Equal(t, "Sales", nu.Department)
}

func TestUpdateForm(t *testing.T) {
	v := users.NewValidator()

	form := users.ParseUpdateForm(url.Values{"name": {"Bob"}, "role": {"USER"}, "enabled": {"on"}})
	require.NoError(t, v.Validate(form))
	require.True(t, form.Enabled)

	uu := form.UpdateUser()
	require.Equal(t, "Bob", *uu.Name)
	require.Equal(t, []string{"USER"}, uu.Roles)
	require.True(t, *uu.Enabled)

	disabled := users.ParseUpdateForm(url.Values{"name": {"Bob"}, "role": {"USER"}})
	require.False(t, disabled.Enabled)

	var ve users.ValidationError
	require.ErrorAs(t, v.Validate(users.UpdateForm{Role: "USER"}), &ve)
	require.Equal(t, "Name is required", ve["name"])
}
