package main

import (
	"fmt"

	"stash/internal/account"
	"stash/internal/db"

	"github.com/spf13/cobra"
)

var (
	superEmail    string
	superPassword string
	superQuota    int64
)

var createSuperuserCmd = &cobra.Command{
	Use:   "createsuperuser",
	Short: "create an administrator account",
	RunE:  createSuperuserF,
}

func init() {
	createSuperuserCmd.Flags().StringVar(&superEmail, "email", "", "email of the new superuser")
	createSuperuserCmd.Flags().StringVar(&superPassword, "password", "", "password of the new superuser")
	createSuperuserCmd.Flags().Int64Var(&superQuota, "quota", -1, "resource quota, negative for unlimited")
	_ = createSuperuserCmd.MarkFlagRequired("email")
	_ = createSuperuserCmd.MarkFlagRequired("password")
}

func createSuperuserF(cmd *cobra.Command, args []string) error {
	_, log, gdb, err := bootstrap()
	if err != nil {
		return err
	}
	defer db.Close(gdb)

	var quota *int64
	if superQuota >= 0 {
		q := superQuota
		quota = &q
	}

	u, err := account.NewService(gdb).Create(cmd.Context(), account.CreateInput{
		Email:       superEmail,
		Password:    superPassword,
		IsSuperuser: true,
		Quota:       quota,
	})
	if err != nil {
		return fmt.Errorf("create superuser: %w", err)
	}

	log.WithField("user_id", u.ID).Infof("superuser %s created", u.Email)
	return nil
}
