package router

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/Nayanankulkarni/OIBSIP-PYTHONPROGRAMMING--TASK1/internal/email"
	"github.com/Nayanankulkarni/OIBSIP-PYTHONPROGRAMMING--TASK1/internal/intent"
	"github.com/Nayanankulkarni/OIBSIP-PYTHONPROGRAMMING--TASK1/internal/mqtt"
	"github.com/Nayanankulkarni/OIBSIP-PYTHONPROGRAMMING--TASK1/internal/speech"
	"github.com/Nayanankulkarni/OIBSIP-PYTHONPROGRAMMING--TASK1/internal/weather"
)

// errRejected marks input the action could not use, such as a
// malformed reminder or an empty email field.
var errRejected = errors.New("input rejected")

func (r *Router) handleExit(ctx context.Context, _ intent.Intent) error {
	r.say(ctx, "Goodbye!")
	return ErrExit
}

func (r *Router) handleTime(ctx context.Context, _ intent.Intent) error {
	r.say(ctx, "The current time is "+r.now().Format("15:04:05"))
	return nil
}

func (r *Router) handleDate(ctx context.Context, _ intent.Intent) error {
	r.say(ctx, "Today is "+r.now().Format("Monday, 02 January 2006"))
	return nil
}

func (r *Router) handleWeather(ctx context.Context, in intent.Intent) error {
	if r.deps.Weather == nil {
		r.say(ctx, "Weather API key is missing.")
		return fmt.Errorf("weather: %w", ErrNotConfigured)
	}

	rep, err := r.deps.Weather.Current(ctx, in.City)
	if err != nil {
		r.deps.Metrics.CollaboratorFailure("weather")
		var apiErr *weather.APIError
		if errors.As(err, &apiErr) {
			r.say(ctx, "Couldn't fetch weather: "+apiErr.Message)
		} else {
			r.say(ctx, fmt.Sprintf("Error fetching weather: %v", err))
		}
		return fmt.Errorf("weather for %s: %w", in.City, err)
	}

	temp := strconv.FormatFloat(rep.Temp, 'f', -1, 64)
	r.say(ctx, fmt.Sprintf("The weather in %s is %s°C with %s.", in.City, temp, rep.Description))
	return nil
}

func (r *Router) handleReminder(ctx context.Context, in intent.Intent) error {
	if in.Task == "" {
		r.say(ctx, intent.ReminderUsage)
		return fmt.Errorf("%w: %w", errRejected, intent.ErrBadReminder)
	}
	if r.deps.Reminders == nil {
		r.say(ctx, "Reminders are not available.")
		return fmt.Errorf("reminders: %w", ErrNotConfigured)
	}

	rem, err := r.deps.Reminders.Schedule(ctx, in.Task, in.Delay)
	if err != nil {
		r.deps.Metrics.CollaboratorFailure("reminders")
		r.say(ctx, "Sorry, I couldn't save that reminder.")
		return err
	}
	r.deps.Metrics.ReminderScheduled()
	r.say(ctx, "Reminder set for "+rem.FireAt.Format("15:04:05"))
	return nil
}

func (r *Router) handleEmail(ctx context.Context, _ intent.Intent) error {
	if r.deps.Mailer == nil {
		r.say(ctx, "Email is not configured.")
		return fmt.Errorf("email: %w", ErrNotConfigured)
	}

	to := email.NormalizeSpokenAddress(r.ask(ctx, "Who do you want to send the email to?"))
	if to == "" {
		r.say(ctx, "Email cancelled.")
		return fmt.Errorf("%w: no recipient", errRejected)
	}
	subject := r.ask(ctx, "What is the subject?")
	if subject == "" {
		r.say(ctx, "Email cancelled.")
		return fmt.Errorf("%w: no subject", errRejected)
	}
	body := r.ask(ctx, "What is the message?")
	if body == "" {
		r.say(ctx, "Email cancelled.")
		return fmt.Errorf("%w: no body", errRejected)
	}

	if err := r.deps.Mailer.Send(ctx, to, subject, body); err != nil {
		r.deps.Metrics.CollaboratorFailure("email")
		r.say(ctx, fmt.Sprintf("Failed to send email: %v", err))
		return fmt.Errorf("send email: %w", err)
	}
	r.say(ctx, "Email sent successfully.")
	return nil
}

// ask speaks prompt and returns the normalized answer, or "" when
// nothing usable was heard. A recognition network error is spoken.
func (r *Router) ask(ctx context.Context, prompt string) string {
	r.say(ctx, prompt)
	if r.deps.Listener == nil {
		return ""
	}

	text, err := r.deps.Listener.Recognize(ctx, r.config.ListenTimeout)
	if err != nil {
		if errors.Is(err, speech.ErrNetwork) {
			r.deps.Metrics.RecognitionError("network")
			r.say(ctx, "Network error while recognizing speech.")
		}
		r.logger.Debug("no answer to prompt", "prompt", prompt, "error", err)
		return ""
	}
	return intent.Normalize(text)
}

func (r *Router) handleDevice(ctx context.Context, in intent.Intent) error {
	if r.deps.Devices == nil {
		r.say(ctx, "MQTT broker not configured.")
		return fmt.Errorf("device control: %w", ErrNotConfigured)
	}

	if err := r.deps.Devices.Publish(ctx, in.Command); err != nil {
		r.deps.Metrics.CollaboratorFailure("mqtt")
		if errors.Is(err, mqtt.ErrNotStarted) {
			r.say(ctx, "MQTT broker is unavailable.")
			return fmt.Errorf("device control: %w: %w", ErrNotConfigured, err)
		}
		r.say(ctx, fmt.Sprintf("Failed to control device: %v", err))
		return fmt.Errorf("device control: %w", err)
	}
	r.say(ctx, fmt.Sprintf("Sent command '%s' to smart home device.", in.Command))
	return nil
}

func (r *Router) handleOpen(ctx context.Context, in intent.Intent) error {
	if in.Target == "" {
		r.say(ctx, "What should I open?")
		return fmt.Errorf("%w: no target", errRejected)
	}
	if r.deps.Launcher == nil {
		r.say(ctx, "Opening applications is not available.")
		return fmt.Errorf("open: %w", ErrNotConfigured)
	}

	res := r.deps.Catalog.Resolve(in.Target)
	if res.App != nil {
		r.logger.Debug("target matched application",
			"target", in.Target, "app", res.App.Name, "score", res.Score)
		if err := r.deps.Launcher.Launch(ctx, *res.App); err != nil {
			r.deps.Metrics.CollaboratorFailure("launcher")
			r.say(ctx, fmt.Sprintf("Cannot open %s: %v", res.App.Name, err))
			return fmt.Errorf("launch %s: %w", res.App.Name, err)
		}
		r.say(ctx, "Opening "+res.App.Name)
		return nil
	}

	r.say(ctx, "Opening "+in.Target)
	if err := r.deps.Launcher.OpenURL(ctx, res.URL); err != nil {
		r.deps.Metrics.CollaboratorFailure("launcher")
		r.say(ctx, fmt.Sprintf("Couldn't open %s: %v", in.Target, err))
		return fmt.Errorf("open %s: %w", res.URL, err)
	}
	return nil
}

// handleFallback tries the encyclopedia first and the language model
// when the lookup fails or is disabled.
func (r *Router) handleFallback(ctx context.Context, in intent.Intent) error {
	if r.deps.Encyclopedia != nil {
		summary, err := r.deps.Encyclopedia.Summary(ctx, in.Text)
		if err == nil {
			r.say(ctx, summary)
			return nil
		}
		r.deps.Metrics.CollaboratorFailure("encyclopedia")
		r.logger.Debug("encyclopedia lookup failed", "query", in.Text, "error", err)
	}

	if r.deps.Answerer == nil {
		r.say(ctx, r.config.AnswererName+" API key is not configured.")
		return fmt.Errorf("language model: %w", ErrNotConfigured)
	}

	answer, err := r.deps.Answerer.Answer(ctx, in.Text)
	if err != nil {
		r.deps.Metrics.CollaboratorFailure("llm")
		r.say(ctx, fmt.Sprintf("Error contacting %s: %v", r.config.AnswererName, err))
		return fmt.Errorf("language model: %w", err)
	}
	r.say(ctx, answer)
	return nil
}
