package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"univendor/internal/api"
	"univendor/internal/shop"
)

var regFirst, regLast, regPhone string

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in with a one-time code",
	Long: `Sign in without a password.

  shop login send <email>           mail a six digit code
  shop login verify <email> <code>  sign in with the code
  shop login email <email>          direct email sign-in (development servers only)

A guest cart is moved to your account once you are signed in.`,
}

var loginSendCmd = &cobra.Command{
	Use:   "send <email>",
	Short: "Mail a sign-in code",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := withTimeout(cmd)
		defer cancel()
		if err := app.session.SendOTP(ctx, args[0]); err != nil {
			return err
		}
		fmt.Fprintf(app.out, "code sent to %s\n", args[0])
		return nil
	},
}

var loginVerifyCmd = &cobra.Command{
	Use:   "verify <email> <code>",
	Short: "Sign in with a mailed code",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := withTimeout(cmd)
		defer cancel()
		res, err := app.session.VerifyOTP(ctx, args[0], args[1])
		if err != nil {
			return err
		}
		if res.RequiresRegistration {
			fmt.Fprintf(app.out, "no account for %s yet; finish with: shop register %s --first NAME --last NAME\n", args[0], args[0])
			return nil
		}
		printSignIn(res)
		return nil
	},
}

var loginEmailCmd = &cobra.Command{
	Use:   "email <email>",
	Short: "Sign in by email alone (development)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := withTimeout(cmd)
		defer cancel()
		res, err := app.session.LoginWithEmail(ctx, args[0])
		if err != nil {
			return err
		}
		printSignIn(res)
		return nil
	},
}

var registerCmd = &cobra.Command{
	Use:   "register <email>",
	Short: "Create an account after verifying a code",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := withTimeout(cmd)
		defer cancel()
		res, err := app.session.Register(ctx, api.RegisterRequest{
			Email:     args[0],
			FirstName: regFirst,
			LastName:  regLast,
			Phone:     regPhone,
		})
		if err != nil {
			return err
		}
		printSignIn(res)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := withTimeout(cmd)
		defer cancel()
		if err := app.session.Logout(ctx); err != nil {
			return err
		}
		fmt.Fprintln(app.out, "signed out")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		u, ok := app.session.User()
		if !ok {
			fmt.Fprintln(app.out, "not signed in")
			return nil
		}
		fmt.Fprintf(app.out, "%s %s <%s> (%s)\n", u.FirstName, u.LastName, u.Email, u.Role)
		return nil
	},
}

func init() {
	loginCmd.AddCommand(loginSendCmd, loginVerifyCmd, loginEmailCmd)
	registerCmd.Flags().StringVar(&regFirst, "first", "", "first name")
	registerCmd.Flags().StringVar(&regLast, "last", "", "last name")
	registerCmd.Flags().StringVar(&regPhone, "phone", "", "phone number")
	_ = registerCmd.MarkFlagRequired("first")
	_ = registerCmd.MarkFlagRequired("last")
}

func printSignIn(res shop.SignIn) {
	fmt.Fprintf(app.out, "signed in as %s (%s)\n", res.User.Email, res.User.Role)
	printCart(app.out, app.view)
}
