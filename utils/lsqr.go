package utils

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// LSQRStop records why the iteration ended.
type LSQRStop uint8

const (
	StopZeroSolution   LSQRStop = iota // x0 (or x = 0) already solves the system
	StopConsistent                     // ||r|| small enough: Ax = b to within ATol, BTol
	StopLeastSquares                   // ||A^T r|| small enough: least squares solution
	StopConditionLimit                 // estimated cond(A) exceeded ConLim
	StopConsistentEps                  // as StopConsistent, at machine precision
	StopLeastSquaresEps                // as StopLeastSquares, at machine precision
	StopConditionEps                   // cond(A) at machine precision limit
	StopIterationLimit                 // MaxIterations reached
)

func (s LSQRStop) String() string {
	return [...]string{"ZeroSolution", "Consistent", "LeastSquares", "ConditionLimit",
		"ConsistentEps", "LeastSquaresEps", "ConditionEps", "IterationLimit"}[s]
}

// Converged is false only when the iteration or condition limit ended the solve.
func (s LSQRStop) Converged() bool {
	return s != StopIterationLimit && s != StopConditionLimit && s != StopConditionEps
}

type LSQRSettings struct {
	ATol, BTol    float64
	ConLim        float64
	MaxIterations int // 0 selects max(4*columns, 100)
}

func DefaultLSQRSettings() LSQRSettings {
	return LSQRSettings{
		ATol:   1.e-12,
		BTol:   1.e-12,
		ConLim: 1.e12,
	}
}

// LSQRResult carries the solution together with the residual norms so a
// caller can judge quality; non-convergence is reported, never raised.
type LSQRResult struct {
	X                  []float64
	Stop               LSQRStop
	Iterations         int
	ResidualNorm       float64 // ||b - Ax||
	NormalResidualNorm float64 // ||A^T (b - Ax)||
	ANorm, ACond       float64 // Frobenius norm and condition estimates of A
}

func (r LSQRResult) String() string {
	return fmt.Sprintf("stop=%s iterations=%d |r|=%8.3e |A'r|=%8.3e",
		r.Stop, r.Iterations, r.ResidualNorm, r.NormalResidualNorm)
}

/*
LSQR solves min ||b - Ax||_2 with the Paige-Saunders bidiagonalization. When
x0 is non nil the solve starts from x0 and returns the solution closest to it,
so rank deficient systems keep whatever x0 already has in the null space of A.
*/
func LSQR(A Operator, b, x0 []float64, s LSQRSettings) (res LSQRResult) {
	var (
		m, n   = A.Dims()
		itnlim = s.MaxIterations
		eps    = math.Nextafter(1, 2) - 1
		ctol   float64
	)
	if len(b) != m {
		panic(fmt.Errorf("dimension mismatch: A has %d rows, len(b) = %d", m, len(b)))
	}
	if itnlim <= 0 {
		itnlim = max(4*n, 100)
	}
	if s.ConLim > 0 {
		ctol = 1 / s.ConLim
	}
	x := make([]float64, n)
	u := make([]float64, m)
	copy(u, b)
	if x0 != nil {
		if len(x0) != n {
			panic(fmt.Errorf("dimension mismatch: A has %d columns, len(x0) = %d", n, len(x0)))
		}
		copy(x, x0)
		Ax := make([]float64, m)
		MulVec(Ax, A, false, x)
		floats.Sub(u, Ax)
	}
	bnorm := floats.Norm(b, 2)
	if bnorm == 0 {
		bnorm = 1
	}
	beta := floats.Norm(u, 2)

	v := make([]float64, n)
	var alfa float64
	if beta > 0 {
		floats.Scale(1/beta, u)
		MulVec(v, A, true, u)
		alfa = floats.Norm(v, 2)
	}
	if alfa > 0 {
		floats.Scale(1/alfa, v)
	}
	w := make([]float64, n)
	copy(w, v)

	var (
		rhobar = alfa
		phibar = beta
		rnorm  = beta
		arnorm = alfa * beta
		anorm, acond, ddnorm float64
		xxnorm, z, sn2       float64
		cs2                  = -1.
		tmpM                 = make([]float64, m)
		tmpN                 = make([]float64, n)
	)
	res.X = x
	res.ResidualNorm = rnorm
	res.NormalResidualNorm = arnorm
	if arnorm == 0 {
		res.Stop = StopZeroSolution
		return
	}

	for res.Iterations < itnlim {
		res.Iterations++
		// u = A v - alfa u, v = A^T u - beta v
		MulVec(tmpM, A, false, v)
		floats.AddScaledTo(u, tmpM, -alfa, u)
		beta = floats.Norm(u, 2)
		if beta > 0 {
			floats.Scale(1/beta, u)
			anorm = math.Sqrt(anorm*anorm + alfa*alfa + beta*beta)
			MulVec(tmpN, A, true, u)
			floats.AddScaledTo(v, tmpN, -beta, v)
			alfa = floats.Norm(v, 2)
			if alfa > 0 {
				floats.Scale(1/alfa, v)
			}
		}

		cs, sn, rho := symOrtho(rhobar, beta)
		theta := sn * alfa
		rhobar = -cs * alfa
		phi := cs * phibar
		phibar = sn * phibar
		tau := sn * phi

		t1 := phi / rho
		t2 := -theta / rho
		ddnorm += floats.Dot(w, w) / (rho * rho)
		floats.AddScaled(x, t1, w)
		floats.AddScaledTo(w, v, t2, w)

		delta := sn2 * rho
		gambar := -cs2 * rho
		rhs := phi - delta*z
		zbar := rhs / gambar
		xnorm := math.Sqrt(xxnorm + zbar*zbar)
		gamma := math.Hypot(gambar, theta)
		cs2 = gambar / gamma
		sn2 = theta / gamma
		z = rhs / gamma
		xxnorm += z * z

		acond = anorm * math.Sqrt(ddnorm)
		rnorm = math.Abs(phibar)
		arnorm = alfa * math.Abs(tau)

		var (
			test1 = rnorm / bnorm
			test2 = arnorm / (anorm*rnorm + eps)
			test3 = 1 / (acond + eps)
			tt1   = test1 / (1 + anorm*xnorm/bnorm)
			rtol  = s.BTol + s.ATol*anorm*xnorm/bnorm
			stop  LSQRStop
		)
		switch {
		case test1 <= rtol:
			stop = StopConsistent
		case test2 <= s.ATol:
			stop = StopLeastSquares
		case test3 <= ctol:
			stop = StopConditionLimit
		case 1+tt1 <= 1:
			stop = StopConsistentEps
		case 1+test2 <= 1:
			stop = StopLeastSquaresEps
		case 1+test3 <= 1:
			stop = StopConditionEps
		case res.Iterations >= itnlim:
			stop = StopIterationLimit
		}
		res.ResidualNorm, res.NormalResidualNorm = rnorm, arnorm
		res.ANorm, res.ACond = anorm, acond
		if stop != StopZeroSolution {
			res.Stop = stop
			break
		}
	}
	return
}

// symOrtho is a stable Givens rotation: [c s; -s c] [a; b] = [r; 0].
func symOrtho(a, b float64) (c, s, r float64) {
	switch {
	case b == 0:
		return math.Copysign(1, a), 0, math.Abs(a)
	case a == 0:
		return 0, math.Copysign(1, b), math.Abs(b)
	case math.Abs(b) > math.Abs(a):
		tau := a / b
		s = math.Copysign(1, b) / math.Sqrt(1+tau*tau)
		c = s * tau
		r = b / s
	default:
		tau := b / a
		c = math.Copysign(1, a) / math.Sqrt(1+tau*tau)
		s = c * tau
		r = a / c
	}
	return
}
