package utils

// Must panics on a startup error that leaves the bot unusable.
func Must(err error) {
	if err != nil {
		panic(err)
	}
}
