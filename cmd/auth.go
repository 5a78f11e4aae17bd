package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/matchmate/internal/backend"
	"github.com/spigell/matchmate/internal/logger"
	"github.com/spigell/matchmate/internal/profile"
	"github.com/spigell/matchmate/internal/secrets"
)

const passwordEnv = envPrefix + "_PASSWORD"

// One submission at a time per form.
var (
	registration profile.Submission
	signingIn    profile.Submission
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account with the three-step profile wizard",
	RunE: withRuntime(func(rt *runtime, cmd *cobra.Command, _ []string) error {
		var form profile.Form
		if err := fillForm(promptAsker{}, &form, rt.notify); err != nil {
			return rt.aborted(err)
		}

		p, err := submitRegistration(rt, &form)
		if err != nil {
			return err
		}

		if login, _ := cmd.Flags().GetBool("login"); login {
			return signIn(rt, p.Name, p.Password)
		}
		rt.notify.Info("Run `%s login --name %s` to sign in.", app, p.Name)
		return nil
	}),
}

var signupCmd = &cobra.Command{
	Use:   "signup",
	Short: "Create an account with the e-mail based flow",
	RunE:  withRuntime(runSignup),
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and remember the session",
	RunE:  withRuntime(runLogin),
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored session",
	RunE: withRuntime(func(rt *runtime, _ *cobra.Command, _ []string) error {
		current := rt.session.Current()
		if err := rt.session.Logout(rt.ctx); err != nil {
			return rt.fail(err, "Could not clear the session")
		}
		if current.LoggedIn() {
			rt.notify.Success("Signed out %s", current.Username)
		} else {
			rt.notify.Info("Nobody was signed in")
		}
		return nil
	}),
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	RunE: withRuntime(func(rt *runtime, _ *cobra.Command, _ []string) error {
		current, err := rt.requireSession()
		if err != nil {
			return err
		}

		rt.notify.Info("%s", current.Username)
		if exp, err := current.ExpiresAt(); err == nil && !exp.IsZero() {
			rt.notify.Info("session expires at %s", exp.Local().Format("2006-01-02 15:04"))
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(registerCmd, signupCmd, loginCmd, logoutCmd, whoamiCmd)

	registerCmd.Flags().Bool("login", false, "sign in right after a successful registration")

	signupCmd.Flags().String("name", "", "user name")
	signupCmd.Flags().String("email", "", "e-mail address")

	loginCmd.Flags().StringP("name", "n", "", "user name")
	loginCmd.Flags().String("password-file", "", "read the password from a file instead of prompting ("+passwordEnv+" works too)")
}

// submitRegistration validates the wizard and sends it. Nothing is sent for an invalid form.
func submitRegistration(rt *runtime, form *profile.Form) (*backend.Profile, error) {
	if !registration.Begin() {
		return nil, rt.fail(errors.New("registration already in progress"), "Registration already in progress")
	}
	defer registration.Done()

	p, err := form.Profile()
	if err != nil {
		return nil, rt.fail(err, "Please check the form")
	}

	if err := rt.api.Register(p); err != nil {
		return nil, rt.fail(err, "Something went wrong. Please try again.")
	}

	logger.WithSession(rt.logger, p.Name, "").Info("registered")
	rt.notify.Success("Registration successful! Welcome aboard! 🎉")
	return p, nil
}

func runLogin(rt *runtime, cmd *cobra.Command, _ []string) error {
	name, _ := cmd.Flags().GetString("name")
	passwordFile, _ := cmd.Flags().GetString("password-file")

	a := promptAsker{}
	if strings.TrimSpace(name) == "" {
		var err error
		if name, err = a.Ask(question{Label: "Username"}); err != nil {
			return rt.aborted(err)
		}
	}

	password, err := secrets.Load(secrets.Source{Name: "password", File: passwordFile, Env: passwordEnv})
	if errors.Is(err, secrets.ErrNotConfigured) {
		password, err = a.Ask(question{Label: "Password", Secret: true})
		if err != nil {
			return rt.aborted(err)
		}
	} else if err != nil {
		return rt.fail(err, err.Error())
	}

	return signIn(rt, name, password)
}

func signIn(rt *runtime, name, password string) error {
	if !signingIn.Begin() {
		return rt.fail(errors.New("login already in progress"), "Login already in progress")
	}
	defer signingIn.Done()

	name = strings.TrimSpace(name)
	token, err := rt.api.Login(backend.Credentials{Name: name, Password: password})
	if err != nil {
		return rt.fail(err, "Login failed. Please try again.")
	}

	if err := rt.session.Login(rt.ctx, name, token.AccessToken); err != nil {
		return rt.fail(err, "Could not store the session")
	}

	logger.WithSession(rt.logger, name, "").Debug("logged in", zap.String("token_type", token.TokenType))
	rt.notify.Success("Welcome back, %s!", name)
	return nil
}

func runSignup(rt *runtime, cmd *cobra.Command, _ []string) error {
	name, _ := cmd.Flags().GetString("name")
	email, _ := cmd.Flags().GetString("email")

	a := promptAsker{}
	var err error
	if strings.TrimSpace(name) == "" {
		if name, err = a.Ask(question{Label: "Name"}); err != nil {
			return rt.aborted(err)
		}
	}
	if strings.TrimSpace(email) == "" {
		if email, err = a.Ask(question{Label: "Email"}); err != nil {
			return rt.aborted(err)
		}
	}

	password, err := a.Ask(question{Label: "Password", Secret: true})
	if err != nil {
		return rt.aborted(err)
	}
	confirm, err := a.Ask(question{Label: "Confirm password", Secret: true})
	if err != nil {
		return rt.aborted(err)
	}

	return signUp(rt, backend.SignupRequest{Name: name, Email: email, Password: password}, confirm)
}

func signUp(rt *runtime, req backend.SignupRequest, confirm string) error {
	if req.Password != confirm {
		return rt.fail(errors.New("passwords do not match"), "Passwords do not match")
	}

	resp, err := rt.api.Signup(req)
	if err != nil {
		return rt.fail(err, "Signup failed. Please try again.")
	}

	name := resp.User.Name
	if name == "" {
		name = req.Name
	}

	if resp.Token != "" {
		if err := rt.session.Login(rt.ctx, name, resp.Token); err != nil {
			return rt.fail(err, "Could not store the session")
		}
	}

	rt.notify.Success("Account created for %s", name)
	rt.notify.Info("Next: run `%s profile --create` to complete your profile.", app)
	return nil
}

// aborted turns a cancelled prompt into a quiet exit.
func (rt *runtime) aborted(err error) error {
	if errors.Is(err, errAborted) {
		rt.notify.Info("Cancelled")
		return nil
	}
	return fmt.Errorf("prompt: %w", err)
}
