package session

import "github.com/karsaku/session-gate/internal/domain"

// Screen names the routes reachable inside each screen group.
type Screen string

const (
	ScreenSplash                Screen = "Splash"
	ScreenLogin                 Screen = "Login"
	ScreenRegister              Screen = "Register"
	ScreenLoginProfessional     Screen = "LoginProfessional"
	ScreenQuestions             Screen = "Questions"
	ScreenRetakeQuestions       Screen = "RetakeQuestions"
	ScreenHome                  Screen = "Home"
	ScreenProfile               Screen = "Profile"
	ScreenDestination           Screen = "Destination"
	ScreenChat                  Screen = "Chat"
	ScreenDoctorSelection       Screen = "DoctorSelection"
	ScreenWaitingRoom           Screen = "WaitingRoom"
	ScreenVideoCall             Screen = "VideoCall"
	ScreenProfessionalDashboard Screen = "ProfessionalDashboard"
	ScreenProfessionalChat      Screen = "ProfessionalChat"
)

// The first screen of each group is its entry route.
var screensByGroup = map[domain.ScreenGroup][]Screen{
	domain.ScreenGroupBootstrapping: {ScreenSplash},
	domain.ScreenGroupSignedOut:     {ScreenLogin, ScreenRegister, ScreenLoginProfessional},
	domain.ScreenGroupOnboarding:    {ScreenQuestions, ScreenProfile, ScreenDestination},
	domain.ScreenGroupSignedInUser: {
		ScreenHome, ScreenRetakeQuestions, ScreenProfile, ScreenDestination,
		ScreenChat, ScreenDoctorSelection, ScreenWaitingRoom, ScreenVideoCall,
	},
	domain.ScreenGroupSignedInProfessional: {ScreenProfessionalDashboard, ScreenProfessionalChat, ScreenVideoCall},
}

// Screens returns the routes of group, entry route first.
func Screens(group domain.ScreenGroup) []Screen {
	return append([]Screen(nil), screensByGroup[group]...)
}

// EntryScreen is the route shown when group becomes active.
func EntryScreen(group domain.ScreenGroup) Screen {
	screens := screensByGroup[group]
	if len(screens) == 0 {
		return ScreenSplash
	}
	return screens[0]
}

// CanVisit reports whether screen belongs to group.
func CanVisit(group domain.ScreenGroup, screen Screen) bool {
	for _, s := range screensByGroup[group] {
		if s == screen {
			return true
		}
	}
	return false
}

// KnownScreen reports whether screen belongs to any group.
func KnownScreen(screen Screen) bool {
	for _, screens := range screensByGroup {
		for _, s := range screens {
			if s == screen {
				return true
			}
		}
	}
	return false
}
