package kernel

import (
	"errors"
	"fmt"
	"strconv"

	"dcgp/internal/numeric"
)

var (
	// ErrKernelNotFound is returned when a name is absent from the registry.
	ErrKernelNotFound = errors.New("kernel not found")
	// ErrKernelIncompatible is returned when an ANN expression is built with
	// a kernel outside the ANN-compatible subset.
	ErrKernelIncompatible = errors.New("kernel not ANN compatible")
)

// Names lists the built-in registry in a stable order.
func Names() []string {
	return []string{
		"sum", "diff", "mul", "div",
		"sig", "tanh", "ReLu", "ELU", "ISRU",
		"sin", "cos", "log", "exp", "sqrt", "gaussian",
	}
}

// ANNNames lists the subset usable by ExpressionANN.
func ANNNames() []string {
	return []string{"sig", "tanh", "ReLu", "ELU", "ISRU", "sum"}
}

// IsANNCompatible reports whether name belongs to the ANN subset.
func IsANNCompatible(name string) bool {
	switch name {
	case "sig", "tanh", "ReLu", "ELU", "ISRU", "sum":
		return true
	}
	return false
}

// Lookup returns the built-in kernel registered under name.
func Lookup[T numeric.Number[T]](name string) (Kernel[T], error) {
	switch name {
	case "sum":
		return New[T](name, evalSum[T], printSum), nil
	case "diff":
		return New[T](name, evalDiff[T], printDiff), nil
	case "mul":
		return New[T](name, evalMul[T], printMul), nil
	case "div":
		return New[T](name, evalDiv[T], printDiv), nil
	case "sig":
		return New[T](name, evalActivation(sig[T]), printActivation(name)), nil
	case "tanh":
		return New[T](name, evalActivation(tanhk[T]), printActivation(name)), nil
	case "ReLu":
		return New[T](name, evalActivation(relu[T]), printActivation(name)), nil
	case "ELU":
		return New[T](name, evalActivation(elu[T]), printActivation(name)), nil
	case "ISRU":
		return New[T](name, evalActivation(isru[T]), printActivation(name)), nil
	case "sin":
		return New[T](name, evalUnary(func(x T) T { return x.Sin() }), printUnary(name)), nil
	case "cos":
		return New[T](name, evalUnary(func(x T) T { return x.Cos() }), printUnary(name)), nil
	case "log":
		return New[T](name, evalUnary(func(x T) T { return x.Log() }), printUnary(name)), nil
	case "exp":
		return New[T](name, evalUnary(func(x T) T { return x.Exp() }), printUnary(name)), nil
	case "sqrt":
		return New[T](name, evalUnary(func(x T) T { return x.Sqrt() }), printUnary(name)), nil
	case "gaussian":
		return New[T](name, evalUnary(gauss[T]), printGaussian), nil
	default:
		return Kernel[T]{}, fmt.Errorf("%w: %s", ErrKernelNotFound, name)
	}
}

// MustKernel is Lookup for names known at compile time.
func MustKernel[T numeric.Number[T]](name string) Kernel[T] {
	k, err := Lookup[T](name)
	if err != nil {
		panic(err)
	}
	return k
}

// Arithmetic kernels fold left over all arguments so they stay meaningful
// for nodes of any arity.

func evalSum[T numeric.Number[T]](args []T) T {
	acc := args[0]
	for _, a := range args[1:] {
		acc = acc.Add(a)
	}
	return acc
}

func evalDiff[T numeric.Number[T]](args []T) T {
	acc := args[0]
	for _, a := range args[1:] {
		acc = acc.Sub(a)
	}
	return acc
}

func evalMul[T numeric.Number[T]](args []T) T {
	acc := args[0]
	for _, a := range args[1:] {
		acc = acc.Mul(a)
	}
	return acc
}

func evalDiv[T numeric.Number[T]](args []T) T {
	acc := args[0]
	for _, a := range args[1:] {
		acc = acc.Div(a)
	}
	return acc
}

// Unary kernels apply to the first argument when handed more than one.
func evalUnary[T numeric.Number[T]](f func(T) T) EvalFunc[T] {
	return func(args []T) T { return f(args[0]) }
}

// Activations sum their arguments to a pre-activation first.
func evalActivation[T numeric.Number[T]](phi func(T) T) EvalFunc[T] {
	return func(args []T) T { return phi(evalSum(args)) }
}

func sig[T numeric.Number[T]](z T) T {
	one := z.Lift(1)
	return one.Div(one.Add(z.Neg().Exp()))
}

func tanhk[T numeric.Number[T]](z T) T { return z.Tanh() }

func relu[T numeric.Number[T]](z T) T {
	if z.Float() > 0 {
		return z
	}
	return z.Lift(0)
}

func elu[T numeric.Number[T]](z T) T {
	if z.Float() > 0 {
		return z
	}
	return z.Exp().Sub(z.Lift(1))
}

func isru[T numeric.Number[T]](z T) T {
	one := z.Lift(1)
	return z.Div(one.Add(z.Mul(z)).Sqrt())
}

func gauss[T numeric.Number[T]](z T) T {
	return z.Mul(z).Neg().Exp()
}

// Symbolic printers. The trivial-case simplifications (x+0 -> x, x*0 -> 0,
// x/x -> 1, x-x -> 0, ...) are advisory only.

func printSum(args []string) string {
	acc := args[0]
	for _, a := range args[1:] {
		acc = printSum2(acc, a)
	}
	return acc
}

func printSum2(s1, s2 string) string {
	switch {
	case s1 == s2:
		return "(2*" + s1 + ")"
	case s1 == "0":
		return s2
	case s2 == "0":
		return s1
	}
	return "(" + s1 + "+" + s2 + ")"
}

func printDiff(args []string) string {
	acc := args[0]
	for _, a := range args[1:] {
		acc = printDiff2(acc, a)
	}
	return acc
}

func printDiff2(s1, s2 string) string {
	switch {
	case s1 == s2:
		return "0"
	case s1 == "0":
		return "(-" + s2 + ")"
	case s2 == "0":
		return s1
	}
	return "(" + s1 + "-" + s2 + ")"
}

func printMul(args []string) string {
	acc := args[0]
	for _, a := range args[1:] {
		acc = printMul2(acc, a)
	}
	return acc
}

func printMul2(s1, s2 string) string {
	switch {
	case s1 == "0" || s2 == "0":
		return "0"
	case s1 == s2:
		return s1 + "^2"
	case s1 == "1":
		return s2
	case s2 == "1":
		return s1
	}
	return "(" + s1 + "*" + s2 + ")"
}

func printDiv(args []string) string {
	acc := args[0]
	for _, a := range args[1:] {
		acc = printDiv2(acc, a)
	}
	return acc
}

func printDiv2(s1, s2 string) string {
	switch {
	case s1 == "0" && s2 != "0":
		return "0"
	case s1 == s2:
		return "1"
	}
	return "(" + s1 + "/" + s2 + ")"
}

func printUnary(name string) PrintFunc {
	return func(args []string) string { return name + "(" + args[0] + ")" }
}

func printActivation(name string) PrintFunc {
	return func(args []string) string {
		s := printSum(args)
		if name == "sum" {
			return s
		}
		return name + "(" + s + ")"
	}
}

func printGaussian(args []string) string {
	return "exp(-" + args[0] + "^2)"
}

// FormatWeight renders a weight or bias constant for symbolic output.
func FormatWeight(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
