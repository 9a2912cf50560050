package formguard_test

import (
	"context"
	"fmt"
	"time"

	formguard "github.com/MrEthical07/formguard"
)

func Example() {
	clock := func() time.Time { return time.Unix(1000, 0) }

	guard, err := formguard.New().
		WithSecretKey([]byte("k1")).
		WithContextURL("/f").
		WithUserData("u1").
		WithClock(clock).
		Build()
	if err != nil {
		panic(err)
	}

	value, err := guard.Issue()
	if err != nil {
		panic(err)
	}

	outcome := guard.Validate(context.Background(), "", map[string]string{
		guard.FieldName(): value,
	})
	fmt.Println(outcome.Result)
	// Output: success
}

func Example_stateful() {
	clock := func() time.Time { return time.Unix(1000, 0) }

	guard, err := formguard.New().
		WithSecretKey([]byte("k1")).
		WithStateful().
		WithLedger(formguard.NewMemoryLedger(time.Hour)).
		WithClock(clock).
		Build()
	if err != nil {
		panic(err)
	}

	value, _ := guard.Issue()
	fields := map[string]string{guard.FieldName(): value}

	fmt.Println(guard.Validate(context.Background(), "sess", fields).Result)
	fmt.Println(guard.Validate(context.Background(), "sess", fields).Result)
	// Output:
	// success
	// reused
}
