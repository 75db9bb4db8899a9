// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2026 Datadog, Inc.

package slack

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/slack-go/slack"
	"go.uber.org/zap"

	"github.com/DataDog/chaos-seal/eventnotifier/types"
	"github.com/DataDog/chaos-seal/eventnotifier/utils"
)

type NotifierSlackConfig struct {
	Enabled       bool   `json:"enabled" yaml:"enabled"`
	TokenFilepath string `json:"tokenFilepath" yaml:"tokenFilepath"`
	Channel       string `json:"channel" yaml:"channel"`
}

// slackNotifier is the subset of the slack client used by the notifier
type slackNotifier interface {
	PostMessage(channelID string, options ...slack.MsgOption) (string, string, error)
}

// Notifier describes a Slack notifier
type Notifier struct {
	client  slackNotifier
	common  types.NotifiersCommonConfig
	channel string
	logger  *zap.SugaredLogger
}

// New Slack Notifier
func New(commonConfig types.NotifiersCommonConfig, slackConfig NotifierSlackConfig, logger *zap.SugaredLogger) (*Notifier, error) {
	if slackConfig.Channel == "" {
		return nil, fmt.Errorf("slack notifier: a channel is required")
	}

	token, err := os.ReadFile(filepath.Clean(slackConfig.TokenFilepath))
	if err != nil {
		return nil, fmt.Errorf("slack notifier: %w", err)
	}

	fields := strings.Fields(string(token))
	if len(fields) == 0 {
		return nil, fmt.Errorf("slack notifier: token file %s is empty", slackConfig.TokenFilepath)
	}

	client := slack.New(fields[0])

	if _, err = client.AuthTest(); err != nil {
		return nil, fmt.Errorf("slack notifier: auth failed: %w", err)
	}

	logger.Info("notifier: slack notifier connected to workspace")

	return &Notifier{
		client:  client,
		common:  commonConfig,
		channel: slackConfig.Channel,
		logger:  logger,
	}, nil
}

// GetNotifierName returns the driver's name
func (n *Notifier) GetNotifierName() string {
	return string(types.NotifierDriverSlack)
}

// Notify posts the report to the configured channel
func (n *Notifier) Notify(report types.Report, notifType types.NotificationType) error {
	headerText := utils.BuildHeaderMessageFromReport(report, notifType)
	bodyText := utils.BuildBodyMessageFromReport(report, true)

	blocks := []slack.Block{
		slack.NewHeaderBlock(slack.NewTextBlockObject("plain_text", headerText, false, false)),
		slack.NewDividerBlock(),
		slack.NewSectionBlock(nil, []*slack.TextBlockObject{
			slack.NewTextBlockObject("mrkdwn", "*Scenario:*\n"+report.Scenario, false, false),
			slack.NewTextBlockObject("mrkdwn", "*Run:*\n"+report.RunID, false, false),
			slack.NewTextBlockObject("mrkdwn", "*Cluster:*\n"+n.common.ClusterName, false, false),
			slack.NewTextBlockObject("mrkdwn", "*Status:*\n"+string(notifType), false, false),
		}, nil),
		slack.NewDividerBlock(),
		slack.NewSectionBlock(slack.NewTextBlockObject("mrkdwn", bodyText, false, false), nil, nil),
	}

	_, _, err := n.client.PostMessage(n.channel,
		slack.MsgOptionText(headerText, false),
		slack.MsgOptionUsername("Chaos Seal"),
		slack.MsgOptionBlocks(blocks...),
	)
	if err != nil {
		return fmt.Errorf("slack notifier: %w", err)
	}

	return nil
}
